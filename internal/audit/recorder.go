// Package audit keeps a trail of session lifecycle events.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	auditDatamodel "github.com/alicomputer/retail-pos/internal/core/datamodel/audit"
	"github.com/alicomputer/retail-pos/internal/core/events"
	"github.com/jmoiron/sqlx"
)

const DefaultRecentLimit = 20

// Schema creates session_events on databases not managed by the goose migrations.
const Schema = `CREATE TABLE IF NOT EXISTS session_events (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	identity_id TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMP NOT NULL
)`

// Recorder writes session events to session_events.
type Recorder struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewRecorder(db *sqlx.DB, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{db: db, logger: logger}
}

func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("audit: ensure schema: %w", err)
	}
	return nil
}

// Subscribe registers the recorder for every session event type on bus.
func (r *Recorder) Subscribe(bus *events.EventBus) {
	for _, eventType := range events.SessionEventTypes() {
		bus.Subscribe(eventType, r.Handle)
	}
}

// Handle is the events.Handler the recorder subscribes with.
func (r *Recorder) Handle(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.SessionEvent)
	if !ok {
		r.logger.WarnContext(ctx, "audit: ignoring unexpected event", "event_type", event.EventType())
		return nil
	}
	return r.Record(ctx, evt)
}

func (r *Recorder) Record(ctx context.Context, evt *events.SessionEvent) error {
	row := auditDatamodel.SessionEvent{
		ID:         evt.EventID(),
		EventType:  evt.EventType(),
		IdentityID: evt.IdentityID,
		Email:      evt.Email,
		Role:       evt.Role,
		Detail:     evt.Detail,
		OccurredAt: evt.OccurredAt(),
	}

	query := `INSERT INTO session_events (id, event_type, identity_id, email, role, detail, occurred_at)
		VALUES (:id, :event_type, :identity_id, :email, :role, :detail, :occurred_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		r.logger.ErrorContext(ctx, "audit: failed to record session event", "event_type", row.EventType, "error", err)
		return fmt.Errorf("audit: record %s: %w", row.EventType, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]auditDatamodel.SessionEvent, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	query := r.db.Rebind(`SELECT id, event_type, identity_id, email, role, detail, occurred_at
		FROM session_events ORDER BY occurred_at DESC, id DESC LIMIT ?`)

	rows := []auditDatamodel.SessionEvent{}
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	return rows, nil
}
