package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeSessionInitialized = "session.initialized"
	EventTypeSessionLoggedIn    = "session.logged_in"
	EventTypeSessionLoginFailed = "session.login_failed"
	EventTypeSessionLoggedOut   = "session.logged_out"
	EventTypeSessionStatePurged = "session.state_purged"
)

// SessionEventTypes lists every session lifecycle event.
func SessionEventTypes() []string {
	return []string{
		EventTypeSessionInitialized,
		EventTypeSessionLoggedIn,
		EventTypeSessionLoginFailed,
		EventTypeSessionLoggedOut,
		EventTypeSessionStatePurged,
	}
}

type SessionEvent struct {
	BaseEvent
	IdentityID string `json:"identity_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func NewSessionEvent(eventType, identityID, email, role, detail string) *SessionEvent {
	return &SessionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"identity_id": identityID,
				"email":       email,
				"role":        role,
				"detail":      detail,
			},
		},
		IdentityID: identityID,
		Email:      email,
		Role:       role,
		Detail:     detail,
	}
}
