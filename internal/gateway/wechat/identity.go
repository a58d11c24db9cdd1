package wechat

import (
	"context"
	"net/http"
	"net/url"

	"room-booking/pkg/apperr"
	"room-booking/pkg/utils"

	"go.uber.org/zap"
)

// Session is the identity returned by jscode2session.
type Session struct {
	OpenID     string
	UnionID    string
	SessionKey string
}

type IdentityClient struct {
	endpoint  string
	appID     string
	appSecret string
	client    *http.Client
	log       *zap.Logger
}

func NewIdentityClient(cfg utils.WeChatConfig, log *zap.Logger) *IdentityClient {
	return &IdentityClient{
		endpoint:  cfg.SessionURL,
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		client:    &http.Client{Timeout: cfg.LoginTimeout},
		log:       log.With(zap.String("gateway", "wechat_identity")),
	}
}

type code2SessionResponse struct {
	OpenID     string `json:"openid"`
	UnionID    string `json:"unionid"`
	SessionKey string `json:"session_key"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

// Exchange trades a one-time login code for the user's stable identity.
func (c *IdentityClient) Exchange(ctx context.Context, code string) (*Session, error) {
	q := url.Values{}
	q.Set("appid", c.appID)
	q.Set("secret", c.appSecret)
	q.Set("js_code", code)
	q.Set("grant_type", "authorization_code")

	var resp code2SessionResponse
	if err := doJSON(ctx, c.client, http.MethodGet, c.endpoint+"?"+q.Encode(), nil, &resp); err != nil {
		c.log.Error("jscode2session request failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindIdentityProvider, err, "WeChat login service unavailable")
	}

	if resp.ErrCode != 0 {
		c.log.Warn("jscode2session rejected code",
			zap.Int("errcode", resp.ErrCode),
			zap.String("errmsg", resp.ErrMsg),
		)
		return nil, apperr.New(apperr.KindIdentityProvider, "WeChat login failed: %s", resp.ErrMsg)
	}
	if resp.OpenID == "" {
		return nil, apperr.New(apperr.KindIdentityProvider, "WeChat login returned no openid")
	}

	return &Session{
		OpenID:     resp.OpenID,
		UnionID:    resp.UnionID,
		SessionKey: resp.SessionKey,
	}, nil
}
