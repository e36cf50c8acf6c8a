package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/alicomputer/retail-pos/internal/auth"
	"github.com/alicomputer/retail-pos/internal/core/events"
	"github.com/alicomputer/retail-pos/internal/identity"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Authority", func() {
	var (
		ctx       context.Context
		st        *faultyStore
		publisher *recordingPublisher
		table     *auth.CapabilityTable
		authority *auth.Authority
		created   time.Time
	)

	newAuthority := func(opts ...auth.Option) *auth.Authority {
		directory, err := identity.NewDemoDirectory(identity.DemoIdentities(created)...)
		Expect(err).NotTo(HaveOccurred())
		quiet := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		opts = append([]auth.Option{auth.WithPublisher(publisher), auth.WithLogger(quiet)}, opts...)
		return auth.NewAuthority(directory, auth.NewStaticSecret(auth.DefaultDemoSecret), table, st, opts...)
	}

	login := func(email string) {
		ok, err := authority.Login(ctx, email, auth.DefaultDemoSecret)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	}

	BeforeEach(func() {
		ctx = context.Background()
		st = newFaultyStore()
		publisher = &recordingPublisher{}
		table = auth.DefaultCapabilityTable()
		created = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		authority = newAuthority()
	})

	Describe("NewAuthority", func() {
		It("starts uninitialized", func() {
			s := authority.Session()
			Expect(s.Loading).To(BeTrue())
			Expect(s.Authenticated).To(BeFalse())
			Expect(s.Identity).To(BeNil())
			Expect(s.State()).To(Equal(auth.StateUninitialized))
			Expect(authority.HasCapability(auth.CapSalesRead)).To(BeFalse())
		})
	})

	Describe("Initialize", func() {
		It("ends unauthenticated when nothing is persisted", func() {
			Expect(authority.Initialize(ctx)).To(Succeed())

			s := authority.Session()
			Expect(s.State()).To(Equal(auth.StateUnauthenticated))
			Expect(s.Identity).To(BeNil())
			Expect(publisher.types()).To(Equal([]string{events.EventTypeSessionInitialized}))
		})

		It("restores a persisted identity", func() {
			Expect(authority.Initialize(ctx)).To(Succeed())
			ok, err := authority.Login(ctx, "manager@alicomputer.com", auth.DefaultDemoSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			// a fresh authority over the same store picks the login up
			restarted := newAuthority()
			Expect(restarted.Initialize(ctx)).To(Succeed())

			s := restarted.Session()
			Expect(s.State()).To(Equal(auth.StateAuthenticated))
			Expect(s.Identity.Email).To(Equal("manager@alicomputer.com"))
			Expect(s.Identity.Role).To(Equal(identity.RoleManager))
			Expect(restarted.HasCapability(auth.CapReportsRead)).To(BeTrue())
		})

		It("purges an entry that is not valid JSON", func() {
			Expect(st.Set(ctx, auth.DefaultSessionKey, []byte("{not json"))).To(Succeed())

			Expect(authority.Initialize(ctx)).To(Succeed())
			Expect(authority.Session().State()).To(Equal(auth.StateUnauthenticated))

			_, err := st.Get(ctx, auth.DefaultSessionKey)
			Expect(err).To(HaveOccurred())
			Expect(publisher.types()).To(ContainElement(events.EventTypeSessionStatePurged))

			// nothing is left for a second pass
			removed := st.removed
			Expect(authority.Initialize(ctx)).To(Succeed())
			Expect(authority.Session().State()).To(Equal(auth.StateUnauthenticated))
			Expect(st.removed).To(Equal(removed))
		})

		It("purges an entry with an unknown role", func() {
			raw := `{"id":"9","email":"ghost@alicomputer.com","name":"Ghost","role":"owner","isActive":true}`
			Expect(st.Set(ctx, auth.DefaultSessionKey, []byte(raw))).To(Succeed())

			Expect(authority.Initialize(ctx)).To(Succeed())
			Expect(authority.Session().Authenticated).To(BeFalse())
			_, err := st.Get(ctx, auth.DefaultSessionKey)
			Expect(err).To(HaveOccurred())
		})

		It("reports a store fault and stays uninitialized", func() {
			st.failGet = true

			err := authority.Initialize(ctx)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, auth.ErrStoreUnavailable)).To(BeTrue())
			Expect(authority.Session().State()).To(Equal(auth.StateUninitialized))
		})

		It("reports a failed purge and stays uninitialized", func() {
			Expect(st.Set(ctx, auth.DefaultSessionKey, []byte("garbage"))).To(Succeed())
			st.failRemove = true

			err := authority.Initialize(ctx)
			Expect(errors.Is(err, auth.ErrStoreUnavailable)).To(BeTrue())
			Expect(authority.Session().Loading).To(BeTrue())
		})

		It("honours a custom session key", func() {
			authority = newAuthority(auth.WithSessionKey("other_key"))
			Expect(authority.Initialize(ctx)).To(Succeed())
			ok, err := authority.Login(ctx, "user@alicomputer.com", auth.DefaultDemoSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			_, err = st.Get(ctx, "other_key")
			Expect(err).NotTo(HaveOccurred())
			_, err = st.Get(ctx, auth.DefaultSessionKey)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			Expect(authority.Initialize(ctx)).To(Succeed())
		})

		It("binds the administrator on the demo secret", func() {
			ok, err := authority.Login(ctx, "admin@alicomputer.com", "password123")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			s := authority.Session()
			Expect(s.Authenticated).To(BeTrue())
			Expect(s.Loading).To(BeFalse())
			Expect(s.Identity.ID).To(Equal("1"))
			Expect(s.Identity.Role).To(Equal(identity.RoleAdministrator))

			persisted, err := st.Get(ctx, auth.DefaultSessionKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(persisted)).To(ContainSubstring(`"email":"admin@alicomputer.com"`))
			Expect(publisher.types()).To(ContainElement(events.EventTypeSessionLoggedIn))
		})

		It("rejects a wrong secret and keeps the prior session", func() {
			ok, err := authority.Login(ctx, "user@alicomputer.com", auth.DefaultDemoSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			before := authority.Session()

			ok, err = authority.Login(ctx, "admin@alicomputer.com", "wrong")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(authority.Session()).To(Equal(before))
			Expect(publisher.types()).To(ContainElement(events.EventTypeSessionLoginFailed))
		})

		It("rejects an unknown identity without touching state", func() {
			ok, err := authority.Login(ctx, "nobody@x.com", auth.DefaultDemoSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(authority.Session().State()).To(Equal(auth.StateUnauthenticated))

			_, err = st.Get(ctx, auth.DefaultSessionKey)
			Expect(err).To(HaveOccurred())
		})

		It("matches the email case-sensitively", func() {
			ok, err := authority.Login(ctx, "Admin@AliComputer.com", auth.DefaultDemoSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("rejects an inactive identity", func() {
			inactive := &identity.Identity{ID: "7", Email: "gone@alicomputer.com", Name: "Gone", Role: identity.RoleStaff}
			directory, err := identity.NewDemoDirectory(inactive)
			Expect(err).NotTo(HaveOccurred())
			authority = auth.NewAuthority(directory, auth.NewStaticSecret(auth.DefaultDemoSecret), table, st)
			Expect(authority.Initialize(ctx)).To(Succeed())

			ok, err := authority.Login(ctx, "gone@alicomputer.com", auth.DefaultDemoSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("returns a fault when persisting fails and leaves the session alone", func() {
			st.failSet = true

			ok, err := authority.Login(ctx, "admin@alicomputer.com", auth.DefaultDemoSecret)
			Expect(ok).To(BeFalse())
			Expect(errors.Is(err, auth.ErrStoreUnavailable)).To(BeTrue())
			Expect(authority.Session().Authenticated).To(BeFalse())
		})

		It("replaces an existing session wholesale", func() {
			login("admin@alicomputer.com")
			ok, err := authority.Login(ctx, "user@alicomputer.com", auth.DefaultDemoSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			Expect(authority.Session().Identity.Role).To(Equal(identity.RoleStaff))
			Expect(authority.HasCapability(auth.CapReportsRead)).To(BeFalse())
		})

		It("hands out copies of the identity", func() {
			login("admin@alicomputer.com")
			s := authority.Session()
			s.Identity.Role = identity.RoleStaff

			Expect(authority.Session().Identity.Role).To(Equal(identity.RoleAdministrator))
		})
	})

	Describe("Logout", func() {
		BeforeEach(func() {
			Expect(authority.Initialize(ctx)).To(Succeed())
			ok, err := authority.Login(ctx, "manager@alicomputer.com", auth.DefaultDemoSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("clears the session and the persisted entry", func() {
			Expect(authority.Logout(ctx)).To(Succeed())

			Expect(authority.Session().State()).To(Equal(auth.StateUnauthenticated))
			Expect(authority.HasCapability(auth.CapSalesRead)).To(BeFalse())
			_, err := st.Get(ctx, auth.DefaultSessionKey)
			Expect(err).To(HaveOccurred())
			Expect(publisher.types()).To(ContainElement(events.EventTypeSessionLoggedOut))
		})

		It("is harmless when already logged out", func() {
			Expect(authority.Logout(ctx)).To(Succeed())
			Expect(authority.Logout(ctx)).To(Succeed())
			Expect(authority.Session().Authenticated).To(BeFalse())
		})

		It("resets the session even when the store fails", func() {
			st.failRemove = true

			err := authority.Logout(ctx)
			Expect(errors.Is(err, auth.ErrStoreUnavailable)).To(BeTrue())
			Expect(authority.Session().Authenticated).To(BeFalse())
			Expect(authority.Capabilities()).To(BeEmpty())
		})
	})

	Describe("HasCapability", func() {
		BeforeEach(func() {
			Expect(authority.Initialize(ctx)).To(Succeed())
		})

		It("is false for every capability while unauthenticated", func() {
			for _, c := range []string{auth.Wildcard, auth.CapSalesRead, auth.CapSettingsRead, ""} {
				Expect(authority.HasCapability(c)).To(BeFalse())
			}
		})

		It("grants the administrator any capability", func() {
			login("admin@alicomputer.com")
			for _, c := range []string{auth.CapSalesRead, auth.CapDataManage, "anything.at.all", "x"} {
				Expect(authority.HasCapability(c)).To(BeTrue())
			}
			Expect(authority.Capabilities()).To(Equal([]string{auth.Wildcard}))
		})

		It("grants staff exactly their set", func() {
			login("user@alicomputer.com")
			granted := table.Capabilities(identity.RoleStaff)
			for _, c := range granted {
				Expect(authority.HasCapability(c)).To(BeTrue(), c)
			}
			for _, c := range []string{auth.CapSalesUpdate, auth.CapReportsRead, auth.CapSettingsRead, auth.Wildcard} {
				Expect(authority.HasCapability(c)).To(BeFalse(), c)
			}
			Expect(authority.Capabilities()).To(Equal(granted))
		})

		It("grants managers exactly their set", func() {
			login("manager@alicomputer.com")
			granted := table.Capabilities(identity.RoleManager)
			Expect(granted).To(ConsistOf(auth.DefaultGrants()[identity.RoleManager]))
			for _, c := range granted {
				Expect(authority.HasCapability(c)).To(BeTrue(), c)
			}
			for _, c := range []string{auth.CapSettingsRead, auth.CapUsersRead, auth.CapDataManage, auth.CapDashboardRead, auth.Wildcard} {
				Expect(authority.HasCapability(c)).To(BeFalse(), c)
			}
			Expect(authority.Capabilities()).To(Equal(granted))
		})

		It("does not match by prefix or case", func() {
			login("manager@alicomputer.com")
			Expect(authority.HasCapability(auth.CapSalesRead)).To(BeTrue())
			Expect(authority.HasCapability("sales")).To(BeFalse())
			Expect(authority.HasCapability("sales.*")).To(BeFalse())
			Expect(authority.HasCapability("SALES.READ")).To(BeFalse())
			Expect(authority.HasCapability(" sales.read")).To(BeFalse())
		})

		It("hands out a snapshot that agrees with the live checks", func() {
			snap := authority.Snapshot()
			Expect(snap.Session.Authenticated).To(BeFalse())
			Expect(snap.Capabilities).To(BeEmpty())
			Expect(snap.HasCapability(auth.CapSalesRead)).To(BeFalse())

			login("manager@alicomputer.com")
			snap = authority.Snapshot()
			Expect(snap.Session.Identity.Role).To(Equal(identity.RoleManager))
			Expect(snap.Capabilities).To(Equal(authority.Capabilities()))
			Expect(snap.HasCapability(auth.CapReportsRead)).To(BeTrue())
			Expect(snap.HasCapability(auth.CapSettingsRead)).To(BeFalse())

			Expect(authority.Logout(ctx)).To(Succeed())
			Expect(snap.Session.Authenticated).To(BeTrue())
			Expect(authority.Snapshot().Capabilities).To(BeEmpty())
		})

		It("answers the same way on repeated calls", func() {
			login("manager@alicomputer.com")
			first := authority.HasCapability(auth.CapReportsRead)
			for i := 0; i < 5; i++ {
				Expect(authority.HasCapability(auth.CapReportsRead)).To(Equal(first))
			}
			Expect(first).To(BeTrue())
		})
	})

	Describe("with a signed codec", func() {
		It("round-trips a login across restarts", func() {
			codec := auth.NewSignedCodec("test-secret", time.Hour)
			authority = newAuthority(auth.WithCodec(codec))
			Expect(authority.Initialize(ctx)).To(Succeed())
			ok, err := authority.Login(ctx, "admin@alicomputer.com", auth.DefaultDemoSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			restarted := newAuthority(auth.WithCodec(codec))
			Expect(restarted.Initialize(ctx)).To(Succeed())
			Expect(restarted.Session().Identity.Email).To(Equal("admin@alicomputer.com"))
		})

		It("purges an entry signed with another secret", func() {
			authority = newAuthority(auth.WithCodec(auth.NewSignedCodec("one", 0)))
			Expect(authority.Initialize(ctx)).To(Succeed())
			login("admin@alicomputer.com")

			restarted := newAuthority(auth.WithCodec(auth.NewSignedCodec("two", 0)))
			Expect(restarted.Initialize(ctx)).To(Succeed())
			Expect(restarted.Session().Authenticated).To(BeFalse())
			_, err := st.Get(ctx, auth.DefaultSessionKey)
			Expect(err).To(HaveOccurred())
		})
	})
})
