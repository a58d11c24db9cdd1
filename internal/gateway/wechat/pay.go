package wechat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"room-booking/pkg/apperr"
	"room-booking/pkg/utils"

	"go.uber.org/zap"
)

const prepayPrefix = "prepay_id="

type UnifiedOrderRequest struct {
	OpenID          string
	Body            string
	MerchantOrderNo string
	TotalFee        int64 // fen
	ClientIP        string
}

// PaymentParams are handed to the mini-program's wx.requestPayment.
type PaymentParams struct {
	AppID     string `json:"appId,omitempty"`
	TimeStamp string `json:"timeStamp"`
	NonceStr  string `json:"nonceStr"`
	Package   string `json:"package"`
	SignType  string `json:"signType"`
	PaySign   string `json:"paySign"`
}

// PrepayID strips the "prepay_id=" prefix from Package.
func (p *PaymentParams) PrepayID() string {
	return strings.TrimPrefix(p.Package, prepayPrefix)
}

type PayClient struct {
	endpoint     string
	subMchID     string
	envID        string
	serviceName  string
	callbackPath string
	client       *http.Client
	log          *zap.Logger
}

// NewPayClient builds the cloud-hosting unifiedOrder client. The caller bounds
// each call with its own context deadline.
func NewPayClient(cfg utils.WeChatConfig, log *zap.Logger) *PayClient {
	return &PayClient{
		endpoint:     cfg.PayURL,
		subMchID:     cfg.SubMchID,
		envID:        cfg.EnvID,
		serviceName:  cfg.ServiceName,
		callbackPath: cfg.CallbackPath,
		client:       &http.Client{},
		log:          log.With(zap.String("gateway", "wechat_pay")),
	}
}

type unifiedOrderPayload struct {
	OpenID         string    `json:"openid"`
	Body           string    `json:"body"`
	OutTradeNo     string    `json:"out_trade_no"`
	TotalFee       int64     `json:"total_fee"`
	SpbillCreateIP string    `json:"spbill_create_ip"`
	SubMchID       string    `json:"sub_mch_id"`
	EnvID          string    `json:"env_id"`
	CallbackType   int       `json:"callback_type"`
	Container      container `json:"container"`
}

type container struct {
	Service string `json:"service"`
	Path    string `json:"path"`
}

type unifiedOrderResponse struct {
	ErrCode  int    `json:"errcode"`
	ErrMsg   string `json:"errmsg"`
	RespData struct {
		Payment *PaymentParams `json:"payment"`
	} `json:"respdata"`
}

// UnifiedOrder creates the prepay transaction.
//
// Errors: KindPaymentGateway when the gateway answers with errcode != 0 (a
// definite rejection), KindGatewayUnavail for transport failures, timeouts,
// non-200 statuses and unusable bodies (outcome unknown).
func (c *PayClient) UnifiedOrder(ctx context.Context, in UnifiedOrderRequest) (*PaymentParams, error) {
	payload := unifiedOrderPayload{
		OpenID:         in.OpenID,
		Body:           in.Body,
		OutTradeNo:     in.MerchantOrderNo,
		TotalFee:       in.TotalFee,
		SpbillCreateIP: in.ClientIP,
		SubMchID:       c.subMchID,
		EnvID:          c.envID,
		CallbackType:   2,
		Container:      container{Service: c.serviceName, Path: c.callbackPath},
	}

	var resp unifiedOrderResponse
	if err := doJSON(ctx, c.client, http.MethodPost, c.endpoint, payload, &resp); err != nil {
		fields := []zap.Field{zap.Error(err), zap.String("merchant_order_no", in.MerchantOrderNo)}
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) {
			fields = append(fields, zap.Int("status", statusErr.Status))
		}
		c.log.Error("unifiedOrder request failed", fields...)
		return nil, apperr.Wrap(apperr.KindGatewayUnavail, err, "Payment gateway unavailable, please retry")
	}

	if resp.ErrCode != 0 {
		c.log.Warn("unifiedOrder rejected",
			zap.String("merchant_order_no", in.MerchantOrderNo),
			zap.Int("errcode", resp.ErrCode),
			zap.String("errmsg", resp.ErrMsg),
		)
		msg := resp.ErrMsg
		if msg == "" {
			msg = "payment order rejected"
		}
		return nil, apperr.New(apperr.KindPaymentGateway, "Payment gateway error: %s", msg)
	}

	p := resp.RespData.Payment
	if p == nil || !strings.HasPrefix(p.Package, prepayPrefix) {
		c.log.Error("unifiedOrder returned no payment parameters",
			zap.String("merchant_order_no", in.MerchantOrderNo),
		)
		return nil, apperr.New(apperr.KindGatewayUnavail, "Payment gateway returned an incomplete response")
	}

	return p, nil
}
