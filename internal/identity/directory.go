package identity

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Directory looks up identities by their login key.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	List(ctx context.Context) ([]*Identity, error)
}

// DemoDirectory is the fixed in-memory directory shipped with the demo build.
type DemoDirectory struct {
	byEmail map[string]*Identity
	order   []string
}

// NewDemoDirectory builds a directory over the given identities. Emails must be unique
// and match case-sensitively.
func NewDemoDirectory(identities ...*Identity) (*DemoDirectory, error) {
	d := &DemoDirectory{byEmail: make(map[string]*Identity, len(identities))}
	for _, ident := range identities {
		if err := ident.Validate(); err != nil {
			return nil, err
		}
		if _, exists := d.byEmail[ident.Email]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, ident.Email)
		}
		d.byEmail[ident.Email] = ident.Clone()
		d.order = append(d.order, ident.Email)
	}
	return d, nil
}

// DemoIdentities returns the three accounts of the demo build, stamped with createdAt.
func DemoIdentities(createdAt time.Time) []*Identity {
	return []*Identity{
		{ID: "1", Email: "admin@alicomputer.com", Name: "Admin User", Role: RoleAdministrator, CreatedAt: createdAt, IsActive: true},
		{ID: "2", Email: "manager@alicomputer.com", Name: "Manager User", Role: RoleManager, CreatedAt: createdAt, IsActive: true},
		{ID: "3", Email: "user@alicomputer.com", Name: "Regular User", Role: RoleStaff, CreatedAt: createdAt, IsActive: true},
	}
}

// DefaultDemoDirectory returns the demo directory with the stock accounts.
func DefaultDemoDirectory() *DemoDirectory {
	d, err := NewDemoDirectory(DemoIdentities(time.Now().UTC())...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *DemoDirectory) FindByEmail(_ context.Context, email string) (*Identity, error) {
	ident, ok := d.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return ident.Clone(), nil
}

func (d *DemoDirectory) List(_ context.Context) ([]*Identity, error) {
	out := make([]*Identity, 0, len(d.order))
	for _, email := range d.order {
		out = append(out, d.byEmail[email].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ Directory = (*DemoDirectory)(nil)
