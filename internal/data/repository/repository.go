package repository

import (
	"room-booking/pkg/database"

	"go.uber.org/zap"
)

// Repository groups every store. Each store's WithTx returns a copy bound to
// an open transaction, so a unit of work names its scope explicitly.
type Repository struct {
	User         UserRepository
	Session      SessionRepository
	AuditLog     AuditLogRepository
	Room         RoomRepository
	Booking      BookingRepository
	PaymentOrder PaymentOrderRepository
}

func NewRepository(db database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Session:      NewSessionRepository(db, log),
		AuditLog:     NewAuditLogRepository(db, log),
		Room:         NewRoomRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		PaymentOrder: NewPaymentOrderRepository(db, log),
	}
}
