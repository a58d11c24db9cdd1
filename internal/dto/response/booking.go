package response

import (
	"time"

	"room-booking/internal/data/entity"
)

type BookingResponse struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	RoomID         string               `json:"room_id"`
	StartTime      time.Time            `json:"start_time"`
	EndTime        time.Time            `json:"end_time"`
	DurationMin    int64                `json:"duration_minutes"`
	ContactName    string               `json:"contact_name"`
	ContactPhone   string               `json:"contact_phone"`
	Remark         *string              `json:"remark,omitempty"`
	OriginalAmount int64                `json:"original_amount"`
	DiscountAmount int64                `json:"discount_amount"`
	FinalAmount    int64                `json:"final_amount"`
	Status         entity.BookingStatus `json:"status"`
	PaymentOrderID *string              `json:"payment_order_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	resp := BookingResponse{
		ID:             b.ID.String(),
		UserID:         b.UserID.String(),
		RoomID:         b.RoomID.String(),
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		DurationMin:    b.Minutes(),
		ContactName:    b.ContactName,
		ContactPhone:   b.ContactPhone,
		Remark:         b.Remark,
		OriginalAmount: b.OriginalAmount,
		DiscountAmount: b.DiscountAmount,
		FinalAmount:    b.FinalAmount,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
	}
	if b.PaymentOrderID != nil {
		id := b.PaymentOrderID.String()
		resp.PaymentOrderID = &id
	}
	return resp
}
