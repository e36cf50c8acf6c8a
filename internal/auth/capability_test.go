package auth_test

import (
	"errors"

	"github.com/alicomputer/retail-pos/internal/auth"
	"github.com/alicomputer/retail-pos/internal/identity"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CapabilityTable", func() {
	Describe("DefaultCapabilityTable", func() {
		table := auth.DefaultCapabilityTable()

		It("gives the administrator only the wildcard", func() {
			Expect(table.Capabilities(identity.RoleAdministrator)).To(Equal([]string{auth.Wildcard}))
			Expect(table.Allows(identity.RoleAdministrator, "settings.read")).To(BeTrue())
		})

		It("gives managers reports but not settings", func() {
			Expect(table.Allows(identity.RoleManager, auth.CapReportsRead)).To(BeTrue())
			Expect(table.Allows(identity.RoleManager, auth.CapProductsUpdate)).To(BeTrue())
			Expect(table.Allows(identity.RoleManager, auth.CapSettingsRead)).To(BeFalse())
			Expect(table.Capabilities(identity.RoleManager)).To(HaveLen(25))
		})

		It("gives staff read access and sale entry", func() {
			Expect(table.Capabilities(identity.RoleStaff)).To(ConsistOf(
				"sales.create", "sales.read", "inventory.read", "purchases.read",
				"returns.create", "returns.read", "expenses.create", "expenses.read",
				"customers.read", "suppliers.read", "products.read",
			))
		})

		It("denies unknown roles", func() {
			Expect(table.Allows(identity.Role("owner"), auth.CapSalesRead)).To(BeFalse())
			Expect(table.Capabilities(identity.Role("owner"))).To(BeEmpty())
		})
	})

	Describe("NewCapabilityTable", func() {
		var grants map[identity.Role][]string

		BeforeEach(func() {
			grants = auth.DefaultGrants()
		})

		It("accepts the default grants", func() {
			_, err := auth.NewCapabilityTable(grants)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects the wildcard outside the administrator role", func() {
			grants[identity.RoleManager] = append(grants[identity.RoleManager], auth.Wildcard)
			_, err := auth.NewCapabilityTable(grants)
			Expect(errors.Is(err, auth.ErrInvalidTable)).To(BeTrue())
		})

		It("rejects an administrator without the wildcard", func() {
			grants[identity.RoleAdministrator] = []string{auth.CapSalesRead}
			_, err := auth.NewCapabilityTable(grants)
			Expect(errors.Is(err, auth.ErrInvalidTable)).To(BeTrue())
		})

		It("rejects an administrator with extra capabilities", func() {
			grants[identity.RoleAdministrator] = []string{auth.Wildcard, auth.CapSalesRead}
			_, err := auth.NewCapabilityTable(grants)
			Expect(errors.Is(err, auth.ErrInvalidTable)).To(BeTrue())
		})

		It("rejects a missing role", func() {
			delete(grants, identity.RoleStaff)
			_, err := auth.NewCapabilityTable(grants)
			Expect(errors.Is(err, auth.ErrInvalidTable)).To(BeTrue())
		})

		It("rejects malformed capability names", func() {
			grants[identity.RoleStaff] = []string{" sales.read"}
			_, err := auth.NewCapabilityTable(grants)
			Expect(errors.Is(err, auth.ErrInvalidTable)).To(BeTrue())

			grants[identity.RoleStaff] = []string{""}
			_, err = auth.NewCapabilityTable(grants)
			Expect(errors.Is(err, auth.ErrInvalidTable)).To(BeTrue())
		})

		It("does not share state with the input map", func() {
			table, err := auth.NewCapabilityTable(grants)
			Expect(err).NotTo(HaveOccurred())
			grants[identity.RoleStaff][0] = auth.CapSettingsRead

			Expect(table.Allows(identity.RoleStaff, auth.CapSettingsRead)).To(BeFalse())
		})
	})

	Describe("ParseGrants", func() {
		It("maps config role names onto roles", func() {
			grants, err := auth.ParseGrants(map[string][]string{
				"administrator": {"*"},
				"manager":       {"reports.read"},
				"staff":         {"sales.read"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(grants[identity.RoleStaff]).To(Equal([]string{"sales.read"}))

			table, err := auth.NewCapabilityTable(grants)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Allows(identity.RoleManager, "reports.read")).To(BeTrue())
		})

		It("rejects unknown role names", func() {
			_, err := auth.ParseGrants(map[string][]string{"owner": {"*"}})
			Expect(errors.Is(err, auth.ErrInvalidTable)).To(BeTrue())
			Expect(errors.Is(err, identity.ErrUnknownRole)).To(BeTrue())
		})
	})
})
