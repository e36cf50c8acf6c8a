package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/alicomputer/retail-pos/internal"
	"github.com/alicomputer/retail-pos/internal/store"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

const (
	healthProbeKey     = "health_probe"
	healthCheckTimeout = 2 * time.Second
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// HealthHandler checks the session store and, when configured, the database.
type HealthHandler struct {
	store store.Store
	db    *sql.DB
}

func NewHealthHandler(st store.Store, db *sql.DB) *HealthHandler {
	return &HealthHandler{store: st, db: db}
}

// pingHandler → just says service is up
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "OK"}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// healthCheckHandler → round-trips the store and pings the database
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := internal.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := map[string]CheckEntry{
		"store": check(func() error { return h.storeRoundTrip(ctx) }),
	}
	if h.db != nil {
		components["database"] = check(func() error { return h.db.PingContext(ctx) })
	}

	overall := HealthHealthy
	for _, c := range components {
		if c.Status == HealthUnhealthy {
			overall = HealthUnhealthy
		}
	}

	resp := HealthResponse{
		Status:     overall,
		CheckedAt:  time.Now(),
		Components: components,
	}

	statusCode := http.StatusOK
	if overall == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *HealthHandler) storeRoundTrip(ctx context.Context) error {
	if err := h.store.Set(ctx, healthProbeKey, []byte("ok")); err != nil {
		return err
	}
	if _, err := h.store.Get(ctx, healthProbeKey); err != nil {
		return err
	}
	return h.store.Remove(ctx, healthProbeKey)
}

func check(fn func() error) CheckEntry {
	start := time.Now()
	err := fn()
	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}
