package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"room-booking/pkg/utils"

	"go.uber.org/zap"
)

// WindowCounter counts hits for key within a fixed window.
type WindowCounter interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit caps requests per client IP. When the counter backend fails the
// request is let through.
func RateLimit(counter WindowCounter, prefix string, limit int64, window time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + prefix + ":" + utils.ClientIP(r)

			hits, err := counter.IncrementWindow(r.Context(), key, window)
			if err != nil {
				logger.Warn("Rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if hits > limit {
				logger.Warn("Rate limit exceeded",
					zap.String("key", key),
					zap.Int64("hits", hits),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				utils.ResponseTooManyRequests(w, "Too many requests, try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
