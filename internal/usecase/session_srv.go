package usecase

import (
	"context"
	"time"

	"room-booking/internal/data/entity"
	"room-booking/internal/data/repository"
	"room-booking/pkg/apperr"
	"room-booking/pkg/database"
	"room-booking/pkg/token"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SessionMeta is the request metadata stored on a session row.
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

// Principal is the caller an access token resolved to.
type Principal struct {
	UserID uuid.UUID
	OpenID string
	Role   entity.UserRole
}

type SessionService interface {
	// CreateSession runs on the caller's transaction.
	CreateSession(ctx context.Context, q database.Querier, userID uuid.UUID, tokens *token.Pair, meta SessionMeta) (*entity.Session, error)
	Validate(ctx context.Context, userID uuid.UUID, accessToken string) bool
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)
	Logout(ctx context.Context, userID uuid.UUID, accessToken string) (bool, error)
	Refresh(ctx context.Context, refreshToken string) (*token.Pair, error)
	CleanExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionService struct {
	db     database.PgxIface
	repo   *repository.Repository
	tokens TokenIssuer
	log    *zap.Logger
	now    func() time.Time
}

func NewSessionService(db database.PgxIface, repo *repository.Repository, tokens TokenIssuer, log *zap.Logger) SessionService {
	return &sessionService{
		db:     db,
		repo:   repo,
		tokens: tokens,
		log:    log.With(zap.String("service", "session")),
		now:    time.Now,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, q database.Querier, userID uuid.UUID, tokens *token.Pair, meta SessionMeta) (*entity.Session, error) {
	sessions := s.repo.Session.WithTx(q)

	purged, err := sessions.DeleteExpiredByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if purged > 0 {
		s.log.Debug("Purged expired sessions",
			zap.String("user_id", userID.String()),
			zap.Int64("count", purged),
		)
	}

	refresh := tokens.RefreshToken
	refreshExp := tokens.RefreshExpiresAt
	session := &entity.Session{
		BaseSimple:       entity.NewBaseSimple(s.now()),
		UserID:           userID,
		Token:            tokens.AccessToken,
		RefreshToken:     &refresh,
		ExpiresAt:        tokens.AccessExpiresAt,
		RefreshExpiresAt: &refreshExp,
		IsActive:         true,
		IPAddress:        optional(meta.IPAddress),
		UserAgent:        optional(meta.UserAgent),
	}

	if err := sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Validate requires both a verifiable token and a live session row. Any
// lookup error counts as invalid.
func (s *sessionService) Validate(ctx context.Context, userID uuid.UUID, accessToken string) bool {
	claims, err := s.tokens.Verify(accessToken, token.TypeAccess)
	if err != nil {
		return false
	}
	if claims.UserID != userID.String() {
		return false
	}

	session, err := s.repo.Session.FindActive(ctx, userID, accessToken)
	if err != nil {
		s.log.Warn("Session lookup failed, rejecting token", zap.Error(err))
		return false
	}
	return session != nil
}

func (s *sessionService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokens.Verify(accessToken, token.TypeAccess)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidToken, "Invalid token subject")
	}

	if !s.Validate(ctx, userID, accessToken) {
		return nil, apperr.New(apperr.KindUnauthorized, "Session expired or logged out")
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDeleted || !user.IsActive {
		return nil, apperr.New(apperr.KindUnauthorized, "Account is not active")
	}

	return &Principal{UserID: user.ID, OpenID: user.OpenID, Role: user.Role}, nil
}

func (s *sessionService) Logout(ctx context.Context, userID uuid.UUID, accessToken string) (bool, error) {
	ok, err := s.repo.Session.Deactivate(ctx, userID, accessToken)
	if err != nil {
		return false, err
	}

	if ok {
		s.log.Info("User logged out", zap.String("user_id", userID.String()))
	} else {
		s.log.Debug("Logout matched no active session", zap.String("user_id", userID.String()))
	}
	return ok, nil
}

// Refresh rotates both tokens on the session the refresh token belongs to.
func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	claims, err := s.tokens.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, err
	}

	var pair *token.Pair
	err = database.RunInTx(ctx, s.db, database.ReadCommitted, func(tx pgx.Tx) error {
		sessions := s.repo.Session.WithTx(tx)

		session, err := sessions.LockActiveByRefresh(ctx, refreshToken)
		if err != nil {
			return err
		}
		if session == nil || session.UserID.String() != claims.UserID {
			return apperr.New(apperr.KindInvalidToken, "Refresh token revoked or expired")
		}

		user, err := s.repo.User.WithTx(tx).FindByID(ctx, session.UserID)
		if err != nil {
			return err
		}
		if user == nil || user.IsDeleted || !user.IsActive {
			return apperr.New(apperr.KindUnauthorized, "Account is not active")
		}

		pair, err = s.tokens.Issue(user.ID, user.OpenID)
		if err != nil {
			return err
		}

		refresh := pair.RefreshToken
		refreshExp := pair.RefreshExpiresAt
		session.Token = pair.AccessToken
		session.RefreshToken = &refresh
		session.ExpiresAt = pair.AccessExpiresAt
		session.RefreshExpiresAt = &refreshExp

		return sessions.Rotate(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Session refreshed", zap.String("user_id", claims.UserID))
	return pair, nil
}

func (s *sessionService) CleanExpired(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.Session.CleanExpired(ctx, before)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
