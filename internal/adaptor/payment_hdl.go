package adaptor

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"room-booking/internal/dto/request"
	"room-booking/internal/dto/response"
	"room-booking/internal/usecase"
	"room-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	callbackSuccess  = "SUCCESS"
	callbackTimeEnd  = "20060102150405"
	maxCallbackBytes = 64 << 10
)

// Gateway timestamps are Beijing time without an offset.
var gatewayZone = time.FixedZone("CST", 8*60*60)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// UnifiedOrder handles POST /api/v1/payment/unified-order (protected)
func (h *PaymentHandler) UnifiedOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.PayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.Pay(r.Context(), userID, &req, utils.ClientIP(r))
	if err != nil {
		handleServiceError(h.log, w, r, err, "unified order")
		return
	}

	utils.ResponseSuccess(w, "Payment created", response.PayResponse{
		Order:   response.PaymentOrderToResponse(result.Order),
		Payment: result.Params,
	})
}

// GetOrder handles GET /api/v1/payment/orders/{merchantOrderNo} (protected)
func (h *PaymentHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	order, err := h.service.GetOrder(r.Context(), userID, chi.URLParam(r, "merchantOrderNo"))
	if err != nil {
		handleServiceError(h.log, w, r, err, "get payment order")
		return
	}

	utils.ResponseSuccess(w, "success", response.PaymentOrderToResponse(order))
}

// Callback handles POST /api/v1/payment/callback (public, called by the gateway).
// Anything other than a 200 ack makes the gateway deliver again.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCallback(r)
	if err != nil {
		h.log.Warn("Unreadable payment callback",
			zap.Error(err),
			zap.String("content_type", r.Header.Get("Content-Type")))
		utils.ResponseBadRequest(w, "Invalid callback body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	in := usecase.CallbackInput{
		MerchantOrderNo: req.OutTradeNo,
		Success:         req.ReturnCode == callbackSuccess && req.ResultCode == callbackSuccess,
		TransactionID:   req.TransactionID,
		Amount:          req.TotalFee,
	}
	if req.TimeEnd != "" {
		if paidAt, err := time.ParseInLocation(callbackTimeEnd, req.TimeEnd, gatewayZone); err == nil {
			in.PaidAt = paidAt
		} else {
			h.log.Warn("Ignoring malformed time_end", zap.String("time_end", req.TimeEnd))
		}
	}

	result, err := h.service.HandleCallback(r.Context(), in)
	if err != nil {
		handleServiceError(h.log, w, r, err, "handle payment callback")
		return
	}

	h.log.Info("Payment callback acknowledged",
		zap.String("merchant_order_no", req.OutTradeNo),
		zap.String("status", string(result.Status)),
		zap.Bool("applied", result.Applied))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response.CallbackAck{ErrCode: 0, ErrMsg: "OK"})
}

// decodeCallback accepts JSON, XML or form encoded notifications.
func decodeCallback(r *http.Request) (*request.PaymentCallbackRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes))
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	contentType := strings.ToLower(r.Header.Get("Content-Type"))

	var req request.PaymentCallbackRequest
	switch {
	case strings.Contains(contentType, "xml") || bytes.HasPrefix(body, []byte("<")):
		err = xml.Unmarshal(body, &req)
	case strings.Contains(contentType, "x-www-form-urlencoded"):
		err = decodeCallbackForm(body, &req)
	default:
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func decodeCallbackForm(body []byte, req *request.PaymentCallbackRequest) error {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return err
	}

	req.ReturnCode = formValue(values, "return_code", "returnCode")
	req.ResultCode = formValue(values, "result_code", "resultCode")
	req.OutTradeNo = formValue(values, "out_trade_no", "outTradeNo")
	req.TransactionID = formValue(values, "transaction_id", "transactionId")
	req.SubOpenID = formValue(values, "openid", "subOpenid")
	req.TimeEnd = formValue(values, "time_end", "timeEnd")

	if fee := formValue(values, "total_fee", "totalFee"); fee != "" {
		n, err := strconv.ParseInt(fee, 10, 64)
		if err != nil {
			return err
		}
		req.TotalFee = &n
	}
	return nil
}

func formValue(values url.Values, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			return v
		}
	}
	return ""
}
