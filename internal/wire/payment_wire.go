package wire

import (
	"net/http"

	"room-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

const paymentCallbackPath = "/api/v1/payment/callback"

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	auth func(http.Handler) http.Handler,
) {
	r.Route("/payment", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		// called by the gateway, never by the mini-program
		r.Post("/callback", paymentHandler.Callback)

		// ==================== PROTECTED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/unified-order", paymentHandler.UnifiedOrder)
			r.Get("/orders/{merchantOrderNo}", paymentHandler.GetOrder)
		})
	})
}
