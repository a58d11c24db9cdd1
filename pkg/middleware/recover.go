package middleware

import (
	"fmt"
	"net/http"

	"room-booking/pkg/apperr"
	"room-booking/pkg/utils"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Recover turns a handler panic into a 500 envelope and logs it under the
// request id, which is echoed in X-Request-Id so a client report can be matched.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}

				reqID := chimw.GetReqID(r.Context())
				fields := []zap.Field{
					zap.String("request_id", reqID),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
					zap.Stack("stack"),
				}
				if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
					fields = append(fields, zap.String("user_id", userID.String()))
				}
				logger.Error("Handler panicked", fields...)

				if reqID != "" {
					w.Header().Set(chimw.RequestIDHeader, reqID)
				}
				utils.ResponseError(w, apperr.Wrap(apperr.KindInternal, err, "handler panicked"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
