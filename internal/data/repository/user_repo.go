package repository

import (
	"context"
	"errors"
	"fmt"

	"room-booking/internal/data/entity"
	"room-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserRepository interface {
	WithTx(q database.Querier) UserRepository

	// InsertIfAbsent returns false when the openid is already taken.
	InsertIfAbsent(ctx context.Context, user *entity.User) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	LockByOpenID(ctx context.Context, openID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, user *entity.User) error
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
}

type userRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewUserRepository(db database.Querier, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func (ur *userRepository) WithTx(q database.Querier) UserRepository {
	return &userRepository{db: q, log: ur.log}
}

const userColumns = `id, openid, unionid, nickname, avatar_url, gender, country, province, city, language,
	phone, email, role, is_active, is_deleted, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID,
		&u.OpenID,
		&u.UnionID,
		&u.Nickname,
		&u.AvatarURL,
		&u.Gender,
		&u.Country,
		&u.Province,
		&u.City,
		&u.Language,
		&u.Phone,
		&u.Email,
		&u.Role,
		&u.IsActive,
		&u.IsDeleted,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepository) InsertIfAbsent(ctx context.Context, user *entity.User) (bool, error) {
	query := `
		INSERT INTO users (id, openid, unionid, nickname, avatar_url, gender, country, province, city,
		                   language, phone, email, role, is_active, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (openid) DO NOTHING
	`

	result, err := ur.db.Exec(ctx, query,
		user.ID,
		user.OpenID,
		user.UnionID,
		user.Nickname,
		user.AvatarURL,
		user.Gender,
		user.Country,
		user.Province,
		user.City,
		user.Language,
		user.Phone,
		user.Email,
		user.Role,
		user.IsActive,
		user.IsDeleted,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("openid", user.OpenID),
		)
		return false, fmt.Errorf("create user %s: %w", user.OpenID, err)
	}

	return result.RowsAffected() == 1, nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(ur.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return user, nil
}

func (ur *userRepository) LockByOpenID(ctx context.Context, openID string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE openid = $1 FOR UPDATE`

	user, err := scanUser(ur.db.QueryRow(ctx, query, openID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by openid",
			zap.Error(err),
			zap.String("openid", openID),
		)
		return nil, fmt.Errorf("find user by openid %s: %w", openID, err)
	}

	return user, nil
}

// UpdateProfile writes the allow-listed profile columns only.
func (ur *userRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET unionid = COALESCE($2, unionid), nickname = $3, avatar_url = $4, gender = $5,
		    country = $6, province = $7, city = $8, language = $9, phone = $10, email = $11,
		    updated_at = $12
		WHERE id = $1 AND is_deleted = FALSE
	`

	result, err := ur.db.Exec(ctx, query,
		user.ID,
		user.UnionID,
		user.Nickname,
		user.AvatarURL,
		user.Gender,
		user.Country,
		user.Province,
		user.City,
		user.Language,
		user.Phone,
		user.Email,
		user.UpdatedAt,
	)

	if err != nil {
		ur.log.Error("Failed to update user",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("update user %s: %w", user.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found or already deleted", user.ID.String())
	}

	return nil
}

func (ur *userRepository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE users SET is_deleted = TRUE, is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_deleted = FALSE`

	result, err := ur.db.Exec(ctx, query, id)
	if err != nil {
		ur.log.Error("Failed to delete user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return false, fmt.Errorf("delete user %s: %w", id.String(), err)
	}

	ok := result.RowsAffected() == 1
	if ok {
		ur.log.Info("User deleted", zap.String("user_id", id.String()))
	}
	return ok, nil
}
