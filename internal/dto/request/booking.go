package request

import "time"

type CreateBookingRequest struct {
	RoomID       string    `json:"room_id" validate:"required,uuid"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	ContactName  string    `json:"contact_name" validate:"required,max=50"`
	ContactPhone string    `json:"contact_phone" validate:"required,min=5,max=20"`
	Remark       *string   `json:"remark,omitempty" validate:"omitempty,max=500"`
}

// UpdateBookingStatusRequest is the admin override.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}
