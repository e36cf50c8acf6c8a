package middleware

import (
	"net/http"
	"time"

	"github.com/alicomputer/retail-pos/internal"
	"github.com/alicomputer/retail-pos/pkg/logger"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	maxRequestIDLen = 64
)

// RequestID attaches RequestMeta and a request-scoped logger to the context. A well-formed
// inbound X-Request-ID is kept, anything else is replaced with a fresh uuid.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		ctx := internal.WithRequestMeta(r.Context(), internal.RequestMeta{
			ID:         id,
			RemoteAddr: r.RemoteAddr,
			ReceivedAt: time.Now(),
		})
		ctx = logger.With(ctx, "request_id", id)

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
