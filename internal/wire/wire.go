// internal/wire/wire.go
package wire

import (
	"net/http"

	"room-booking/internal/adaptor"
	"room-booking/internal/data/repository"
	"room-booking/internal/usecase"
	"room-booking/pkg/database"
	"room-booking/pkg/middleware"
	"room-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the assembled router and the services background jobs need.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes. limiter may be nil, in which
// case login is not rate limited.
func Wiring(
	db database.PgxIface,
	repo *repository.Repository,
	config *utils.Config,
	ext usecase.Collaborators,
	limiter middleware.WindowCounter,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(db, repo, config, ext, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, service, config, limiter, db, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	config *utils.Config,
	limiter middleware.WindowCounter,
	db database.PgxIface,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	auth := middleware.AuthSession(service.Session, logger)
	admin := middleware.Admin(logger)

	r.Route("/api/v1", func(r chi.Router) {
		wireAuth(r, handler.Auth, auth, limiter, config, logger)
		wireBooking(r, handler.Booking, auth, admin)
		wireUser(r, handler.User, auth, admin)
		wirePayment(r, handler.Payment, auth)
	})

	// The gateway may be configured with a callback path outside /api/v1.
	if cb := config.WeChat.CallbackPath; cb != "" && cb != paymentCallbackPath {
		r.Post(cb, handler.Payment.Callback)
	}

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			logger.Warn("Health check: database unreachable", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("DB UNAVAILABLE"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
