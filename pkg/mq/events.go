package mq

import "time"

// Routing keys on the events exchange.
const (
	KeyBookingConfirmed = "booking.confirmed"
	KeyPaymentFailed    = "payment.failed"
)

// BookingConfirmed is consumed by the door actuator to open the room for the slot.
type BookingConfirmed struct {
	BookingID       string    `json:"booking_id"`
	RoomID          string    `json:"room_id"`
	UserID          string    `json:"user_id"`
	MerchantOrderNo string    `json:"merchant_order_no"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

type PaymentFailed struct {
	MerchantOrderNo string `json:"merchant_order_no"`
	UserID          string `json:"user_id"`
	Reason          string `json:"reason"`
}
