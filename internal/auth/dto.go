package auth

import (
	"time"

	"github.com/alicomputer/retail-pos/internal/identity"
)

// LoginDTO is the body of POST /session/login. Email is matched exactly, so no format
// rule is applied beyond presence.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required,max=256"`
}

type IdentityResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}

type SessionResponse struct {
	State         State             `json:"state"`
	Authenticated bool              `json:"authenticated"`
	Loading       bool              `json:"loading"`
	Identity      *IdentityResponse `json:"identity,omitempty"`
	Capabilities  []string          `json:"capabilities"`
}

type CapabilitiesResponse struct {
	Role         string   `json:"role,omitempty"`
	Capabilities []string `json:"capabilities"`
}

type CapabilityCheckResponse struct {
	Capability string `json:"capability"`
	Allowed    bool   `json:"allowed"`
}

func toIdentityResponse(ident *identity.Identity) *IdentityResponse {
	if ident == nil {
		return nil
	}
	return &IdentityResponse{
		ID:        ident.ID,
		Email:     ident.Email,
		Name:      ident.Name,
		Role:      ident.Role.String(),
		CreatedAt: ident.CreatedAt,
		IsActive:  ident.IsActive,
	}
}

// ToSessionResponse renders a snapshot together with its capability list.
func ToSessionResponse(snap Snapshot) SessionResponse {
	s, capabilities := snap.Session, snap.Capabilities
	if capabilities == nil {
		capabilities = []string{}
	}
	return SessionResponse{
		State:         s.State(),
		Authenticated: s.Authenticated,
		Loading:       s.Loading,
		Identity:      toIdentityResponse(s.Identity),
		Capabilities:  capabilities,
	}
}
