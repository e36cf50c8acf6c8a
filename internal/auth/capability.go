package auth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alicomputer/retail-pos/internal/identity"
)

// Capability names used across the point-of-sale screens.
const (
	CapSalesCreate = "sales.create"
	CapSalesRead   = "sales.read"
	CapSalesUpdate = "sales.update"

	CapInventoryCreate = "inventory.create"
	CapInventoryRead   = "inventory.read"
	CapInventoryUpdate = "inventory.update"

	CapPurchasesCreate = "purchases.create"
	CapPurchasesRead   = "purchases.read"
	CapPurchasesUpdate = "purchases.update"

	CapReturnsCreate = "returns.create"
	CapReturnsRead   = "returns.read"
	CapReturnsUpdate = "returns.update"

	CapExpensesCreate = "expenses.create"
	CapExpensesRead   = "expenses.read"
	CapExpensesUpdate = "expenses.update"

	CapReportsRead = "reports.read"

	CapCustomersCreate = "customers.create"
	CapCustomersRead   = "customers.read"
	CapCustomersUpdate = "customers.update"

	CapSuppliersCreate = "suppliers.create"
	CapSuppliersRead   = "suppliers.read"
	CapSuppliersUpdate = "suppliers.update"

	CapProductsCreate = "products.create"
	CapProductsRead   = "products.read"
	CapProductsUpdate = "products.update"

	CapSettingsRead  = "settings.read"
	CapDashboardRead = "dashboard.read"
	CapUsersRead     = "users.read"
	CapDataManage    = "data.manage"
)

// CapabilityTable maps every role to its capability set. It is immutable once built.
type CapabilityTable struct {
	grants map[identity.Role]map[string]struct{}
}

// NewCapabilityTable validates grants and freezes them. The administrator role must map
// to exactly the wildcard and no other role may hold it.
func NewCapabilityTable(grants map[identity.Role][]string) (*CapabilityTable, error) {
	t := &CapabilityTable{grants: make(map[identity.Role]map[string]struct{}, len(grants))}

	for role, caps := range grants {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: %w %q", ErrInvalidTable, identity.ErrUnknownRole, role)
		}
		set := make(map[string]struct{}, len(caps))
		for _, c := range caps {
			if c == "" || strings.TrimSpace(c) != c {
				return nil, fmt.Errorf("%w: role %s has malformed capability %q", ErrInvalidTable, role, c)
			}
			if c == Wildcard && role != identity.RoleAdministrator {
				return nil, fmt.Errorf("%w: role %s cannot hold the wildcard", ErrInvalidTable, role)
			}
			set[c] = struct{}{}
		}
		t.grants[role] = set
	}

	admin, ok := t.grants[identity.RoleAdministrator]
	if !ok || len(admin) != 1 {
		return nil, fmt.Errorf("%w: role %s must map to exactly %q", ErrInvalidTable, identity.RoleAdministrator, Wildcard)
	}
	if _, ok := admin[Wildcard]; !ok {
		return nil, fmt.Errorf("%w: role %s must map to exactly %q", ErrInvalidTable, identity.RoleAdministrator, Wildcard)
	}
	for _, role := range identity.Roles() {
		if _, ok := t.grants[role]; !ok {
			return nil, fmt.Errorf("%w: role %s is missing", ErrInvalidTable, role)
		}
	}

	return t, nil
}

// DefaultGrants is the stock role table of the point-of-sale build.
func DefaultGrants() map[identity.Role][]string {
	return map[identity.Role][]string{
		identity.RoleAdministrator: {Wildcard},
		identity.RoleManager: {
			CapSalesCreate, CapSalesRead, CapSalesUpdate,
			CapInventoryCreate, CapInventoryRead, CapInventoryUpdate,
			CapPurchasesCreate, CapPurchasesRead, CapPurchasesUpdate,
			CapReturnsCreate, CapReturnsRead, CapReturnsUpdate,
			CapExpensesCreate, CapExpensesRead, CapExpensesUpdate,
			CapReportsRead,
			CapCustomersCreate, CapCustomersRead, CapCustomersUpdate,
			CapSuppliersCreate, CapSuppliersRead, CapSuppliersUpdate,
			CapProductsCreate, CapProductsRead, CapProductsUpdate,
		},
		identity.RoleStaff: {
			CapSalesCreate, CapSalesRead,
			CapInventoryRead,
			CapPurchasesRead,
			CapReturnsCreate, CapReturnsRead,
			CapExpensesCreate, CapExpensesRead,
			CapCustomersRead,
			CapSuppliersRead,
			CapProductsRead,
		},
	}
}

func DefaultCapabilityTable() *CapabilityTable {
	t, err := NewCapabilityTable(DefaultGrants())
	if err != nil {
		panic(err)
	}
	return t
}

// ParseGrants turns the config form (role name -> capability list) into typed grants.
func ParseGrants(raw map[string][]string) (map[identity.Role][]string, error) {
	grants := make(map[identity.Role][]string, len(raw))
	for name, caps := range raw {
		role, err := identity.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
		}
		grants[role] = append(grants[role], caps...)
	}
	return grants, nil
}

// Allows reports whether role holds the wildcard or exactly capability.
func (t *CapabilityTable) Allows(role identity.Role, capability string) bool {
	set, ok := t.grants[role]
	if !ok {
		return false
	}
	if _, ok := set[Wildcard]; ok {
		return true
	}
	_, ok = set[capability]
	return ok
}

// Capabilities returns the sorted capability set of role.
func (t *CapabilityTable) Capabilities(role identity.Role) []string {
	set := t.grants[role]
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
