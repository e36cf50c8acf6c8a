package internal

import (
	"context"
	"time"
)

type ctxKey int

const requestMetaKey ctxKey = iota

// RequestMeta identifies the inbound HTTP request a context was derived from.
type RequestMeta struct {
	ID         string
	RemoteAddr string
	ReceivedAt time.Time
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, meta)
}

func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	meta, ok := ctx.Value(requestMetaKey).(RequestMeta)
	return meta, ok
}

// RequestIDFromContext returns the request id, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	meta, _ := RequestMetaFromContext(ctx)
	return meta.ID
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
