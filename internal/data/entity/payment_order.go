package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

type PaymentOrder struct {
	Base
	UserID          uuid.UUID     `db:"user_id"`
	OpenID          string        `db:"openid"`
	MerchantOrderNo string        `db:"merchant_order_no"`
	Body            string        `db:"body"`
	Amount          int64         `db:"amount"` // fen
	Status          PaymentStatus `db:"status"`
	TransactionID   *string       `db:"transaction_id"`
	PrepayID        *string       `db:"prepay_id"`
	IPAddress       *string       `db:"ip_address"`
	PaidAt          *time.Time    `db:"paid_at"`
}
