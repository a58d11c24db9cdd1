package usecase

import (
	"room-booking/internal/data/repository"
	"room-booking/pkg/database"
	"room-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Account AccountService
	Session SessionService
	Booking BookingService
	Payment PaymentService
}

func NewService(
	db database.PgxIface,
	repo *repository.Repository,
	config *utils.Config,
	ext Collaborators,
	log *zap.Logger,
) *Service {
	session := NewSessionService(db, repo, ext.Tokens, log)
	booking := NewBookingService(db, repo, log)

	return &Service{
		Account: NewAccountService(db, repo, ext.Identity, ext.Tokens, session, log),
		Session: session,
		Booking: booking,
		Payment: NewPaymentService(db, repo, booking, ext.Gateway, ext.Events, config.WeChat, log),
	}
}
