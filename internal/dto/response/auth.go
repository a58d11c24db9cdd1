package response

import (
	"time"

	"room-booking/internal/data/entity"
)

type AuthResponse struct {
	UserID           string          `json:"user_id"`
	AccessToken      string          `json:"access_token"`
	RefreshToken     string          `json:"refresh_token"`
	TokenType        string          `json:"token_type"`
	ExpiresAt        time.Time       `json:"expires_at"`
	RefreshExpiresAt time.Time       `json:"refresh_expires_at"`
	Action           string          `json:"action,omitempty"`
	User             *UserResponse   `json:"user,omitempty"`
	Role             entity.UserRole `json:"role,omitempty"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	OpenID    string          `json:"openid"`
	Nickname  string          `json:"nickname"`
	AvatarURL string          `json:"avatar_url"`
	Gender    int16           `json:"gender"`
	Phone     *string         `json:"phone,omitempty"`
	Email     *string         `json:"email,omitempty"`
	Role      entity.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		OpenID:    user.OpenID,
		Nickname:  user.Nickname,
		AvatarURL: user.AvatarURL,
		Gender:    user.Gender,
		Phone:     user.Phone,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
