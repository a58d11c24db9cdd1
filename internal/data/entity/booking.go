package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Terminal statuses never change again.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

type Booking struct {
	Base
	UserID         uuid.UUID     `db:"user_id"`
	RoomID         uuid.UUID     `db:"room_id"`
	StartTime      time.Time     `db:"start_time"`
	EndTime        time.Time     `db:"end_time"`
	ContactName    string        `db:"contact_name"`
	ContactPhone   string        `db:"contact_phone"`
	Remark         *string       `db:"remark"`
	OriginalAmount int64         `db:"original_amount"`
	DiscountAmount int64         `db:"discount_amount"`
	FinalAmount    int64         `db:"final_amount"`
	Status         BookingStatus `db:"status"`
	PaymentOrderID *uuid.UUID    `db:"payment_order_id"`
}

// Minutes is the billed length, rounded up.
func (b *Booking) Minutes() int64 {
	d := b.EndTime.Sub(b.StartTime)
	m := int64(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	return m
}
