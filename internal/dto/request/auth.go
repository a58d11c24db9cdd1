package request

// LoginRequest carries the mini-program login code plus the profile the
// client got from wx.getUserProfile.
type LoginRequest struct {
	Code      string  `json:"code" validate:"required,max=128"`
	Nickname  string  `json:"nickname" validate:"required,max=100"`
	AvatarURL string  `json:"avatar_url" validate:"required,url,max=500"`
	Gender    int16   `json:"gender" validate:"oneof=0 1 2"`
	Country   *string `json:"country,omitempty" validate:"omitempty,max=50"`
	Province  *string `json:"province,omitempty" validate:"omitempty,max=50"`
	City      *string `json:"city,omitempty" validate:"omitempty,max=50"`
	Language  *string `json:"language,omitempty" validate:"omitempty,max=20"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=100"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
