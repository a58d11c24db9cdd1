package request

import "encoding/xml"

// PayRequest starts (or retries) payment for one booking. Reusing the
// merchant_order_no from a previous attempt makes the call idempotent.
type PayRequest struct {
	BookingID       string `json:"booking_id" validate:"required,uuid"`
	MerchantOrderNo string `json:"merchant_order_no,omitempty" validate:"omitempty,len=26,numeric"`
	Body            string `json:"body,omitempty" validate:"omitempty,max=128"`
}

// PaymentCallbackRequest accepts the gateway's JSON (camelCase) and XML
// (snake_case) notification shapes.
type PaymentCallbackRequest struct {
	XMLName       xml.Name `json:"-" xml:"xml"`
	ReturnCode    string   `json:"returnCode" xml:"return_code"`
	ResultCode    string   `json:"resultCode" xml:"result_code"`
	OutTradeNo    string   `json:"outTradeNo" xml:"out_trade_no" validate:"required,max=32"`
	TransactionID string   `json:"transactionId" xml:"transaction_id"`
	TotalFee      *int64   `json:"totalFee" xml:"total_fee"`
	SubOpenID     string   `json:"subOpenid" xml:"openid"`
	TimeEnd       string   `json:"timeEnd" xml:"time_end"`
}
