package auth

import (
	"context"
	"errors"

	"github.com/alicomputer/retail-pos/internal/identity"
)

// Wildcard is the capability that grants every capability.
const Wildcard = "*"

// DefaultSessionKey is the store key the current identity is persisted under.
const DefaultSessionKey = "alicomputer_user"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCorruptState       = errors.New("corrupt persisted session state")
	ErrCapabilityDenied   = errors.New("capability denied")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrStoreUnavailable   = errors.New("session store unavailable")
	ErrInvalidTable       = errors.New("invalid capability table")
)

// State is the lifecycle position of a Session.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// Session is a snapshot of the current login. Identity is nil unless Authenticated.
type Session struct {
	Identity      *identity.Identity `json:"identity"`
	Authenticated bool               `json:"authenticated"`
	Loading       bool               `json:"loading"`
}

func (s Session) State() State {
	switch {
	case s.Loading:
		return StateUninitialized
	case s.Authenticated:
		return StateAuthenticated
	default:
		return StateUnauthenticated
	}
}

// Snapshot pairs a session with its role's capability list, both taken under one lock.
type Snapshot struct {
	Session      Session
	Capabilities []string
}

// HasCapability answers from the snapshot's list alone.
func (s Snapshot) HasCapability(capability string) bool {
	return Grants(s.Capabilities, capability)
}

// Grants reports whether capabilities holds capability or the wildcard.
func Grants(capabilities []string, capability string) bool {
	for _, c := range capabilities {
		if c == Wildcard || c == capability {
			return true
		}
	}
	return false
}

// CapabilityChecker answers capability questions for the current session.
type CapabilityChecker interface {
	HasCapability(capability string) bool
}

// SnapshotSource hands out consistent reads of the current session.
type SnapshotSource interface {
	Snapshot() Snapshot
}

// SessionAuthority is the surface transport and CLI code depend on.
type SessionAuthority interface {
	CapabilityChecker
	SnapshotSource
	Initialize(ctx context.Context) error
	Login(ctx context.Context, identifier, secret string) (bool, error)
	Logout(ctx context.Context) error
	Session() Session
	Capabilities() []string
}
