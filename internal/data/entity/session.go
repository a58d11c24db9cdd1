package entity

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	BaseSimple
	UserID           uuid.UUID  `db:"user_id"`
	Token            string     `db:"token"`
	RefreshToken     *string    `db:"refresh_token"`
	ExpiresAt        time.Time  `db:"expires_at"`
	RefreshExpiresAt *time.Time `db:"refresh_expires_at"`
	IsActive         bool       `db:"is_active"`
	IPAddress        *string    `db:"ip_address"`
	UserAgent        *string    `db:"user_agent"`
}
