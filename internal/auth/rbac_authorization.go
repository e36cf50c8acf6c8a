package auth

import (
	"log/slog"
	"net/http"

	"github.com/alicomputer/retail-pos/internal"
	"github.com/alicomputer/retail-pos/internal/transport"
)

// RBACAuthorization gates routes on the current session.
type RBACAuthorization struct {
	*transport.BaseHandler
	authority SessionAuthority
}

func NewRBACAuthorization(authority SessionAuthority, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		authority:   authority,
	}
}

func (ra *RBACAuthorization) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ra.authority.Session().Authenticated {
				ra.Logger.WarnContext(r.Context(), "authorization check failed: no authenticated session", "path", r.URL.Path)
				ra.WriteAppError(w, internal.ErrNotAuthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability answers 401 without a session and 403 when the role lacks capability.
func (ra *RBACAuthorization) RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, capability)
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, capability string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := ra.authority.Snapshot()
		s := snap.Session
		if !s.Authenticated || s.Identity == nil {
			ra.Logger.WarnContext(r.Context(), "authorization check failed: no authenticated session", "path", r.URL.Path)
			ra.WriteAppError(w, internal.ErrNotAuthenticated)
			return
		}

		if !snap.HasCapability(capability) {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"identity_id", s.Identity.ID,
				"role", s.Identity.Role,
				"required_capability", capability)
			ra.WriteAppError(w, internal.ErrCapabilityDenied)
			return
		}

		next.ServeHTTP(w, r)
	}
}
