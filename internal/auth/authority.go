package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alicomputer/retail-pos/internal/core/events"
	"github.com/alicomputer/retail-pos/internal/identity"
	"github.com/alicomputer/retail-pos/internal/store"
	"github.com/alicomputer/retail-pos/pkg/logger"
)

// Authority owns the one current Session. It is the only writer of that session and
// the persisted entry behind it.
type Authority struct {
	mu      sync.RWMutex
	session Session

	directory identity.Directory
	verifier  CredentialVerifier
	table     *CapabilityTable
	store     store.Store
	codec     IdentityCodec
	key       string
	events    events.Publisher
	logger    *slog.Logger
}

type Option func(*Authority)

// WithCodec replaces the default JSONCodec.
func WithCodec(codec IdentityCodec) Option {
	return func(a *Authority) {
		if codec != nil {
			a.codec = codec
		}
	}
}

// WithSessionKey replaces DefaultSessionKey.
func WithSessionKey(key string) Option {
	return func(a *Authority) {
		if key != "" {
			a.key = key
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(a *Authority) {
		a.events = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Authority) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAuthority returns an Authority in the Uninitialized state. Call Initialize before use.
func NewAuthority(directory identity.Directory, verifier CredentialVerifier, table *CapabilityTable, st store.Store, opts ...Option) *Authority {
	a := &Authority{
		session:   Session{Loading: true},
		directory: directory,
		verifier:  verifier,
		table:     table,
		store:     st,
		codec:     JSONCodec{},
		key:       DefaultSessionKey,
		logger:    logger.LoggerWrapper(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize restores the session from the store. A missing entry leaves the session
// unauthenticated; an entry that cannot be decoded is removed. Store faults are returned
// wrapped in ErrStoreUnavailable and the session stays uninitialized.
func (a *Authority) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := a.store.Get(ctx, a.key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.session = Session{}
			a.publish(ctx, events.EventTypeSessionInitialized, nil, string(StateUnauthenticated))
			a.logger.DebugContext(ctx, "session initialized", "state", StateUnauthenticated)
			return nil
		}
		a.logger.ErrorContext(ctx, "session initialize: store read failed", "key", a.key, "error", err)
		return fmt.Errorf("%w: read: %w", ErrStoreUnavailable, err)
	}

	ident, err := a.codec.Decode(data)
	if err != nil {
		a.logger.WarnContext(ctx, "session initialize: discarding persisted identity", "key", a.key, "error", err)
		if rmErr := a.store.Remove(ctx, a.key); rmErr != nil {
			a.logger.ErrorContext(ctx, "session initialize: store remove failed", "key", a.key, "error", rmErr)
			return fmt.Errorf("%w: remove: %w", ErrStoreUnavailable, rmErr)
		}
		a.session = Session{}
		a.publish(ctx, events.EventTypeSessionStatePurged, nil, err.Error())
		a.publish(ctx, events.EventTypeSessionInitialized, nil, string(StateUnauthenticated))
		return nil
	}

	a.session = Session{Identity: ident, Authenticated: true}
	a.publish(ctx, events.EventTypeSessionInitialized, ident, string(StateAuthenticated))
	a.logger.DebugContext(ctx, "session initialized", "state", StateAuthenticated, "identity_id", ident.ID)
	return nil
}

// Login authenticates identifier with secret. A rejected attempt returns false and a nil
// error and leaves the session as it was.
func (a *Authority) Login(ctx context.Context, identifier, secret string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ident, err := a.directory.FindByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			a.rejected(ctx, identifier, "unknown identity")
			return false, nil
		}
		a.logger.ErrorContext(ctx, "login: directory lookup failed", "error", err)
		return false, fmt.Errorf("login: directory: %w", err)
	}

	if !ident.IsActive {
		a.rejected(ctx, identifier, "inactive identity")
		return false, nil
	}
	if !a.verifier.Verify(ident, secret) {
		a.rejected(ctx, identifier, "secret mismatch")
		return false, nil
	}

	data, err := a.codec.Encode(ident)
	if err != nil {
		return false, fmt.Errorf("login: encode: %w", err)
	}
	if err := a.store.Set(ctx, a.key, data); err != nil {
		a.logger.ErrorContext(ctx, "login: store write failed", "key", a.key, "error", err)
		return false, fmt.Errorf("%w: write: %w", ErrStoreUnavailable, err)
	}

	a.session = Session{Identity: ident.Clone(), Authenticated: true}
	a.publish(ctx, events.EventTypeSessionLoggedIn, ident, "")
	a.logger.InfoContext(ctx, "login succeeded", "identity_id", ident.ID, "role", ident.Role)
	return true, nil
}

// Logout clears the persisted entry and resets the session. The reset happens even when
// the store fails; the fault is still returned.
func (a *Authority) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.session.Identity
	rmErr := a.store.Remove(ctx, a.key)
	if rmErr != nil && errors.Is(rmErr, store.ErrNotFound) {
		rmErr = nil
	}

	a.session = Session{}
	a.publish(ctx, events.EventTypeSessionLoggedOut, prev, "")

	if rmErr != nil {
		a.logger.ErrorContext(ctx, "logout: store remove failed", "key", a.key, "error", rmErr)
		return fmt.Errorf("%w: remove: %w", ErrStoreUnavailable, rmErr)
	}
	return nil
}

// HasCapability reports whether the current session may use capability.
func (a *Authority) HasCapability(capability string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.session.Authenticated || a.session.Identity == nil {
		return false
	}
	return a.table.Allows(a.session.Identity.Role, capability)
}

// Session returns a copy of the current session.
func (a *Authority) Session() Session {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := a.session
	s.Identity = a.session.Identity.Clone()
	return s
}

// Capabilities lists the current role's grants, or nothing when unauthenticated.
func (a *Authority) Capabilities() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.session.Authenticated || a.session.Identity == nil {
		return []string{}
	}
	return a.table.Capabilities(a.session.Identity.Role)
}

// Snapshot returns the session and its capability list from a single read.
func (a *Authority) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := Snapshot{Session: a.session, Capabilities: []string{}}
	snap.Session.Identity = a.session.Identity.Clone()
	if a.session.Authenticated && a.session.Identity != nil {
		snap.Capabilities = a.table.Capabilities(a.session.Identity.Role)
	}
	return snap
}

// Table exposes the role table the authority checks against.
func (a *Authority) Table() *CapabilityTable {
	return a.table
}

func (a *Authority) rejected(ctx context.Context, identifier, reason string) {
	a.logger.InfoContext(ctx, "login rejected", "reason", reason)
	if a.events == nil {
		return
	}
	evt := events.NewSessionEvent(events.EventTypeSessionLoginFailed, "", identifier, "", reason)
	if err := a.events.Publish(ctx, evt); err != nil {
		a.logger.WarnContext(ctx, "failed to publish session event", "event_type", evt.EventType(), "error", err)
	}
}

func (a *Authority) publish(ctx context.Context, eventType string, ident *identity.Identity, detail string) {
	if a.events == nil {
		return
	}
	var id, email, role string
	if ident != nil {
		id, email, role = ident.ID, ident.Email, ident.Role.String()
	}
	evt := events.NewSessionEvent(eventType, id, email, role, detail)
	if err := a.events.Publish(ctx, evt); err != nil {
		a.logger.WarnContext(ctx, "failed to publish session event", "event_type", eventType, "error", err)
	}
}

var _ SessionAuthority = (*Authority)(nil)
