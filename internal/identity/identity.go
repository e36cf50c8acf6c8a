package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	identityDatamodel "github.com/alicomputer/retail-pos/internal/core/datamodel/identity"
)

// Role is the coarse grouping that decides an identity's capability set.
type Role string

const (
	RoleAdministrator Role = "admin"
	RoleManager       Role = "manager"
	RoleStaff         Role = "user"
)

// Roles lists every role in the closed set.
func Roles() []Role {
	return []Role{RoleAdministrator, RoleManager, RoleStaff}
}

// ParseRole accepts the stored role tags as well as their long names.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "administrator":
		return RoleAdministrator, nil
	case "manager":
		return RoleManager, nil
	case "user", "staff":
		return RoleStaff, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleManager, RoleStaff:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Identity is one directory entry. The JSON shape is the one persisted in the session store.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}

var (
	ErrNotFound       = errors.New("identity not found")
	ErrUnknownRole    = errors.New("unknown role")
	ErrDuplicateEmail = errors.New("duplicate identity email")
	ErrInvalid        = errors.New("invalid identity")
)

// Validate reports whether the identity is well-formed enough to back a session.
func (i *Identity) Validate() error {
	if i == nil {
		return fmt.Errorf("%w: nil", ErrInvalid)
	}
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if strings.TrimSpace(i.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	if !i.Role.Valid() {
		return fmt.Errorf("%w: %w %q", ErrInvalid, ErrUnknownRole, i.Role)
	}
	return nil
}

// Clone returns a copy so callers never share the session's identity.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func ToDataModel(i *Identity) *identityDatamodel.Identity {
	return &identityDatamodel.Identity{
		ExternalID: i.ID,
		Email:      i.Email,
		Name:       i.Name,
		Role:       string(i.Role),
		IsActive:   i.IsActive,
		CreatedAt:  i.CreatedAt,
	}
}

func FromDataModel(m *identityDatamodel.Identity) (*Identity, error) {
	role, err := ParseRole(m.Role)
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:        m.ExternalID,
		Email:     m.Email,
		Name:      m.Name,
		Role:      role,
		CreatedAt: m.CreatedAt,
		IsActive:  m.IsActive,
	}, nil
}
