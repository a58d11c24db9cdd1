package adaptor

import (
	"net/http"

	"room-booking/internal/usecase"
	"room-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.AccountService
	log     *zap.Logger
}

func NewUserHandler(service usecase.AccountService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With(zap.String("handler", "user")),
	}
}

// DeleteUser handles DELETE /api/v1/admin/users/{id} (admin only)
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, chi.URLParam(r, "id"), "id")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		handleServiceError(h.log, w, r, err, "delete user")
		return
	}

	h.log.Info("User deleted", zap.String("user_id", userID.String()))
	utils.ResponseSuccess(w, "User deleted successfully", nil)
}
