package adaptor

import (
	"net/http"

	"room-booking/internal/dto/request"
	"room-booking/internal/dto/response"
	"room-booking/internal/usecase"
	"room-booking/pkg/token"
	"room-booking/pkg/utils"

	"go.uber.org/zap"
)

const tokenType = "Bearer"

type AuthHandler struct {
	accounts usecase.AccountService
	sessions usecase.SessionService
	log      *zap.Logger
}

func NewAuthHandler(accounts usecase.AccountService, sessions usecase.SessionService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		log:      log.With(zap.String("handler", "auth")),
	}
}

// Login handles POST /api/v1/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	meta := usecase.SessionMeta{
		IPAddress: utils.ClientIP(r),
		UserAgent: r.UserAgent(),
	}

	result, err := h.accounts.Login(r.Context(), &req, meta)
	if err != nil {
		handleServiceError(h.log, w, r, err, "login")
		return
	}

	user := response.UserToResponse(result.User)
	resp := authResponse(result.Tokens)
	resp.UserID = user.ID
	resp.Action = result.Action
	resp.User = &user
	resp.Role = result.User.Role

	utils.ResponseSuccess(w, "Login successful", resp)
}

// Refresh handles POST /api/v1/users/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	tokens, err := h.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(h.log, w, r, err, "refresh token")
		return
	}

	utils.ResponseSuccess(w, "Token refreshed", authResponse(tokens))
}

// Logout handles POST /api/v1/users/logout (protected)
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	accessToken, ok := utils.GetTokenFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if _, err := h.sessions.Logout(r.Context(), userID, accessToken); err != nil {
		handleServiceError(h.log, w, r, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "Logout successful", nil)
}

func authResponse(tokens *token.Pair) response.AuthResponse {
	return response.AuthResponse{
		AccessToken:      tokens.AccessToken,
		RefreshToken:     tokens.RefreshToken,
		TokenType:        tokenType,
		ExpiresAt:        tokens.AccessExpiresAt,
		RefreshExpiresAt: tokens.RefreshExpiresAt,
	}
}
