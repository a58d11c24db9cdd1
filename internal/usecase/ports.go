package usecase

import (
	"context"

	"room-booking/internal/gateway/wechat"
	"room-booking/pkg/token"

	"github.com/google/uuid"
)

// IdentityProvider turns a mini-program login code into a stable openid.
type IdentityProvider interface {
	Exchange(ctx context.Context, code string) (*wechat.Session, error)
}

type TokenIssuer interface {
	Issue(userID uuid.UUID, openID string) (*token.Pair, error)
	Verify(tokenStr string, want token.Type) (*token.Claims, error)
}

type PaymentGateway interface {
	UnifiedOrder(ctx context.Context, in wechat.UnifiedOrderRequest) (*wechat.PaymentParams, error)
}

// EventPublisher is best effort; callers log failures and move on.
type EventPublisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// Collaborators groups the external systems the services talk to.
type Collaborators struct {
	Identity IdentityProvider
	Tokens   TokenIssuer
	Gateway  PaymentGateway
	Events   EventPublisher
}
