// Package navigation decides which screens the current session may see.
package navigation

import (
	"github.com/alicomputer/retail-pos/internal/auth"
)

// DefaultTab is shown when no tab, or an unknown one, is requested.
const DefaultTab = "sales"

type Item struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Capability string `json:"capability"`
}

var tabs = []Item{
	{ID: "sales", Label: "Sales", Capability: auth.CapSalesRead},
	{ID: "inventory", Label: "Inventory", Capability: auth.CapInventoryRead},
	{ID: "purchases", Label: "Purchases", Capability: auth.CapPurchasesRead},
	{ID: "returns", Label: "Returns", Capability: auth.CapReturnsRead},
	{ID: "expenses", Label: "Expenses", Capability: auth.CapExpensesRead},
	{ID: "reports", Label: "Reports", Capability: auth.CapReportsRead},
	{ID: "settings", Label: "Settings", Capability: auth.CapSettingsRead},
	{ID: "dashboard", Label: "Dashboard", Capability: auth.CapDashboardRead},
}

var settingsSections = []Item{
	{ID: "users", Label: "User Management", Capability: auth.CapUsersRead},
	{ID: "customers", Label: "Customer Management", Capability: auth.CapCustomersRead},
	{ID: "suppliers", Label: "Supplier Management", Capability: auth.CapSuppliersRead},
	{ID: "products", Label: "Product Management", Capability: auth.CapProductsRead},
	{ID: "import-export", Label: "Import/Export Data", Capability: auth.CapDataManage},
}

// Tabs returns the main tabs in display order.
func Tabs() []Item {
	return append([]Item(nil), tabs...)
}

// SettingsSections returns the sections of the settings screen in display order.
func SettingsSections() []Item {
	return append([]Item(nil), settingsSections...)
}

// Visible keeps the items the capability list opens, preserving order.
func Visible(items []Item, capabilities []string) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if auth.Grants(capabilities, item.Capability) {
			out = append(out, item)
		}
	}
	return out
}

// Resolve returns the tab with id, or the default tab when id is unknown.
func Resolve(id string) Item {
	for _, t := range tabs {
		if t.ID == id {
			return t
		}
	}
	return tabs[0]
}
