package middleware

import (
	"net/http"
	"time"

	"github.com/alicomputer/retail-pos/internal"
	"github.com/go-chi/httprate"
)

// LoginRateLimit caps login attempts per client IP per minute. A non-positive limit
// disables it.
func LoginRateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeAppError(w, internal.NewRateLimitedError("too many login attempts, slow down", internal.ErrCodeRateLimited))
		}),
	)
}
