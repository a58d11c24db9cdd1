package response

import (
	"time"

	"room-booking/internal/data/entity"
)

type PaymentOrderResponse struct {
	ID              string               `json:"id"`
	MerchantOrderNo string               `json:"merchant_order_no"`
	Body            string               `json:"body"`
	Amount          int64                `json:"amount"`
	Status          entity.PaymentStatus `json:"status"`
	TransactionID   *string              `json:"transaction_id,omitempty"`
	PaidAt          *time.Time           `json:"paid_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func PaymentOrderToResponse(o *entity.PaymentOrder) PaymentOrderResponse {
	return PaymentOrderResponse{
		ID:              o.ID.String(),
		MerchantOrderNo: o.MerchantOrderNo,
		Body:            o.Body,
		Amount:          o.Amount,
		Status:          o.Status,
		TransactionID:   o.TransactionID,
		PaidAt:          o.PaidAt,
		CreatedAt:       o.CreatedAt,
	}
}

// PayResponse is what the mini-program needs to call wx.requestPayment.
type PayResponse struct {
	Order   PaymentOrderResponse `json:"order"`
	Payment any                  `json:"payment"`
}

// CallbackAck is the body the gateway expects on success.
type CallbackAck struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}
