package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"room-booking/internal/data/entity"
	"room-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SessionRepository interface {
	WithTx(q database.Querier) SessionRepository

	Create(ctx context.Context, session *entity.Session) error
	DeleteExpiredByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	FindActive(ctx context.Context, userID uuid.UUID, token string) (*entity.Session, error)
	LockActiveByRefresh(ctx context.Context, refreshToken string) (*entity.Session, error)
	Rotate(ctx context.Context, session *entity.Session) error
	Deactivate(ctx context.Context, userID uuid.UUID, token string) (bool, error)
	DeactivateAllByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CleanExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSessionRepository(db database.Querier, log *zap.Logger) SessionRepository {
	return &sessionRepository{
		db:  db,
		log: log.With(zap.String("repository", "session")),
	}
}

func (r *sessionRepository) WithTx(q database.Querier) SessionRepository {
	return &sessionRepository{db: q, log: r.log}
}

const sessionColumns = `id, user_id, token, refresh_token, expires_at, refresh_expires_at,
	is_active, ip_address, user_agent, created_at`

func scanSession(row pgx.Row) (*entity.Session, error) {
	var s entity.Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Token,
		&s.RefreshToken,
		&s.ExpiresAt,
		&s.RefreshExpiresAt,
		&s.IsActive,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token, refresh_token, expires_at, refresh_expires_at,
		                      is_active, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.RefreshToken,
		session.ExpiresAt,
		session.RefreshExpiresAt,
		session.IsActive,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create session",
			zap.Error(err),
			zap.String("user_id", session.UserID.String()),
		)
		return fmt.Errorf("create session for user %s: %w", session.UserID.String(), err)
	}

	return nil
}

// DeleteExpiredByUser purges the user's sessions that can no longer be used,
// not even for refresh.
func (r *sessionRepository) DeleteExpiredByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE user_id = $1
		  AND expires_at <= NOW()
		  AND (refresh_expires_at IS NULL OR refresh_expires_at <= NOW())
	`

	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to purge expired sessions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("purge expired sessions of user %s: %w", userID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *sessionRepository) FindActive(ctx context.Context, userID uuid.UUID, token string) (*entity.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1
		  AND token = $2
		  AND is_active = TRUE
		  AND expires_at > NOW()
	`

	session, err := scanSession(r.db.QueryRow(ctx, query, userID, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active session",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find active session: %w", err)
	}

	return session, nil
}

func (r *sessionRepository) LockActiveByRefresh(ctx context.Context, refreshToken string) (*entity.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE refresh_token = $1
		  AND is_active = TRUE
		  AND refresh_expires_at > NOW()
		FOR UPDATE
	`

	session, err := scanSession(r.db.QueryRow(ctx, query, refreshToken))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find session by refresh token", zap.Error(err))
		return nil, fmt.Errorf("find session by refresh token: %w", err)
	}

	return session, nil
}

// Rotate stores a new token pair on an existing session row.
func (r *sessionRepository) Rotate(ctx context.Context, session *entity.Session) error {
	query := `
		UPDATE sessions
		SET token = $2, refresh_token = $3, expires_at = $4, refresh_expires_at = $5
		WHERE id = $1 AND is_active = TRUE
	`

	result, err := r.db.Exec(ctx, query,
		session.ID,
		session.Token,
		session.RefreshToken,
		session.ExpiresAt,
		session.RefreshExpiresAt,
	)
	if err != nil {
		r.log.Error("Failed to rotate session",
			zap.Error(err),
			zap.String("session_id", session.ID.String()),
		)
		return fmt.Errorf("rotate session %s: %w", session.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found or inactive", session.ID.String())
	}

	return nil
}

func (r *sessionRepository) Deactivate(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	query := `
		UPDATE sessions
		SET is_active = FALSE, refresh_token = NULL, refresh_expires_at = NULL
		WHERE user_id = $1 AND token = $2 AND is_active = TRUE
	`

	result, err := r.db.Exec(ctx, query, userID, token)
	if err != nil {
		r.log.Error("Failed to deactivate session",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return false, fmt.Errorf("deactivate session: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *sessionRepository) DeactivateAllByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		UPDATE sessions
		SET is_active = FALSE, refresh_token = NULL, refresh_expires_at = NULL
		WHERE user_id = $1 AND is_active = TRUE
	`

	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to deactivate user sessions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("deactivate sessions of user %s: %w", userID.String(), err)
	}

	return result.RowsAffected(), nil
}

// CleanExpired removes rows that can no longer be used, not even for refresh.
func (r *sessionRepository) CleanExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE expires_at < $1
		  AND (refresh_expires_at IS NULL OR refresh_expires_at < $1)
	`

	result, err := r.db.Exec(ctx, query, before)
	if err != nil {
		r.log.Error("Failed to clean expired sessions", zap.Error(err))
		return 0, fmt.Errorf("clean expired sessions: %w", err)
	}

	return result.RowsAffected(), nil
}
