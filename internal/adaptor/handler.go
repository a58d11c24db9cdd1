package adaptor

import (
	"encoding/json"
	"net/http"

	"room-booking/internal/usecase"
	"room-booking/pkg/apperr"
	"room-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Booking *BookingHandler
	Payment *PaymentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Account, service.Session, log),
		User:    NewUserHandler(service.Account, log),
		Booking: NewBookingHandler(service.Booking, log),
		Payment: NewPaymentHandler(service.Payment, log),
	}
}

// decodeJSON writes the 400 itself and reports whether the caller may go on.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// pathUUID reads a chi URL parameter that must be a UUID.
func pathUUID(w http.ResponseWriter, value, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid "+name, map[string]string{name: "must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps err to its response. Only internal failures are
// logged at error level; everything else is the caller's problem.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, r *http.Request, err error, operation string) {
	kind := apperr.KindOf(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("kind", string(kind)),
		zap.String("path", r.URL.Path),
	}

	switch kind {
	case apperr.KindInternal:
		log.Error("Failed to "+operation, fields...)
	case apperr.KindGatewayUnavail, apperr.KindPaymentGateway, apperr.KindIdentityProvider:
		log.Warn(operation+" failed upstream", fields...)
	default:
		log.Info(operation+" rejected", fields...)
	}

	utils.ResponseError(w, err)
}
