package audit

import "time"

// SessionEvent is one row of session_events.
type SessionEvent struct {
	ID         string    `db:"id"`
	EventType  string    `db:"event_type"`
	IdentityID string    `db:"identity_id"`
	Email      string    `db:"email"`
	Role       string    `db:"role"`
	Detail     string    `db:"detail"`
	OccurredAt time.Time `db:"occurred_at"`
}

func (SessionEvent) TableName() string {
	return "session_events"
}
