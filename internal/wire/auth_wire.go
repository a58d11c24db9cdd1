package wire

import (
	"net/http"

	"room-booking/internal/adaptor"
	"room-booking/pkg/middleware"
	"room-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	auth func(http.Handler) http.Handler,
	limiter middleware.WindowCounter,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	login := r
	if limiter != nil && config.Redis.LoginLimit > 0 {
		login = r.With(middleware.RateLimit(limiter, "login", config.Redis.LoginLimit, config.Redis.LoginWindow, log))
	}
	login.Post("/users/login", authHandler.Login)
	r.Post("/users/refresh", authHandler.Refresh)

	// ==================== PROTECTED ROUTES ====================
	r.With(auth).Post("/users/logout", authHandler.Logout)
}
