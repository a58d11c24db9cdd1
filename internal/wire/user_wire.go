package wire

import (
	"net/http"

	"room-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireUser configures admin user management routes
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	auth, admin func(http.Handler) http.Handler,
) {
	r.With(auth, admin).Delete("/admin/users/{id}", userHandler.DeleteUser)
}
