package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"

	"github.com/alicomputer/retail-pos/internal/auth"
	"github.com/alicomputer/retail-pos/internal/identity"
	"github.com/alicomputer/retail-pos/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Session Handler", func() {
	var (
		st        *faultyStore
		authority *auth.Authority
		router    chi.Router
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body.Error.Code
	}

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		st = newFaultyStore()
		authority = auth.NewAuthority(
			identity.DefaultDemoDirectory(),
			auth.NewStaticSecret(auth.DefaultDemoSecret),
			auth.DefaultCapabilityTable(),
			st,
			auth.WithLogger(slogger),
		)
		Expect(authority.Initialize(context.Background())).To(Succeed())

		handler := auth.NewHandler(transport.NewBaseHandler(slogger), authority)
		rbac := auth.NewRBACAuthorization(authority, slogger)

		router = chi.NewRouter()
		router.Get("/session", handler.GetSession)
		router.Post("/session/login", handler.Login)
		router.Post("/session/logout", handler.Logout)
		router.With(rbac.RequireAuthenticated()).Get("/session/capabilities", handler.GetCapabilities)
		router.Get("/session/capabilities/{capability}", handler.CheckCapability)
		router.With(rbac.RequireCapability(auth.CapSettingsRead)).Get("/settings", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	It("reports an unauthenticated session", func() {
		w := do(http.MethodGet, "/session", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp auth.SessionResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.State).To(Equal(auth.StateUnauthenticated))
		Expect(resp.Identity).To(BeNil())
		Expect(resp.Capabilities).To(BeEmpty())
	})

	It("logs in with valid credentials", func() {
		w := do(http.MethodPost, "/session/login", `{"email":"manager@alicomputer.com","password":"password123"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp auth.SessionResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Authenticated).To(BeTrue())
		Expect(resp.Identity.Role).To(Equal("manager"))
		Expect(resp.Capabilities).To(ContainElement(auth.CapReportsRead))
	})

	It("rejects invalid credentials with 401", func() {
		w := do(http.MethodPost, "/session/login", `{"email":"manager@alicomputer.com","password":"nope"}`)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(w)).To(Equal("INVALID_CREDENTIALS"))
	})

	It("rejects a body without a password with 400", func() {
		w := do(http.MethodPost, "/session/login", `{"email":"manager@alicomputer.com"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("VALIDATION_FAILED"))
	})

	It("rejects malformed JSON with 400", func() {
		w := do(http.MethodPost, "/session/login", `{"email":`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("INVALID_REQUEST"))
	})

	It("answers 503 when the store cannot persist the login", func() {
		st.failSet = true
		w := do(http.MethodPost, "/session/login", `{"email":"admin@alicomputer.com","password":"password123"}`)
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(errorCode(w)).To(Equal("STORE_UNAVAILABLE"))
	})

	It("logs out", func() {
		Expect(do(http.MethodPost, "/session/login", `{"email":"user@alicomputer.com","password":"password123"}`).Code).To(Equal(http.StatusOK))

		w := do(http.MethodPost, "/session/logout", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(authority.Session().Authenticated).To(BeFalse())
	})

	It("gates capabilities behind a session", func() {
		Expect(do(http.MethodGet, "/session/capabilities", "").Code).To(Equal(http.StatusUnauthorized))

		do(http.MethodPost, "/session/login", `{"email":"user@alicomputer.com","password":"password123"}`)
		w := do(http.MethodGet, "/session/capabilities", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp auth.CapabilitiesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Role).To(Equal("user"))
		Expect(resp.Capabilities).To(ContainElement(auth.CapSalesCreate))
	})

	It("checks a single capability", func() {
		do(http.MethodPost, "/session/login", `{"email":"user@alicomputer.com","password":"password123"}`)

		w := do(http.MethodGet, "/session/capabilities/sales.read", "")
		var resp auth.CapabilityCheckResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Allowed).To(BeTrue())

		w = do(http.MethodGet, "/session/capabilities/reports.read", "")
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Allowed).To(BeFalse())
	})

	It("returns 401 then 403 then passes for a capability gate", func() {
		Expect(do(http.MethodGet, "/settings", "").Code).To(Equal(http.StatusUnauthorized))

		do(http.MethodPost, "/session/login", `{"email":"manager@alicomputer.com","password":"password123"}`)
		w := do(http.MethodGet, "/settings", "")
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(w)).To(Equal("CAPABILITY_DENIED"))

		do(http.MethodPost, "/session/login", `{"email":"admin@alicomputer.com","password":"password123"}`)
		Expect(do(http.MethodGet, "/settings", "").Code).To(Equal(http.StatusNoContent))
	})

	It("never pairs an identity with a mismatched capability list while the session changes", func() {
		ctx := context.Background()
		stop := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer GinkgoRecover()
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				ok, err := authority.Login(ctx, "admin@alicomputer.com", auth.DefaultDemoSecret)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(authority.Logout(ctx)).To(Succeed())
			}
		}()
		defer func() {
			close(stop)
			wg.Wait()
		}()

		for i := 0; i < 2000; i++ {
			w := do(http.MethodGet, "/session", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp auth.SessionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			if resp.Authenticated {
				Expect(resp.Identity).NotTo(BeNil())
				Expect(resp.Capabilities).To(Equal([]string{auth.Wildcard}))
			} else {
				Expect(resp.Identity).To(BeNil())
				Expect(resp.Capabilities).To(BeEmpty())
			}

			code := do(http.MethodGet, "/settings", "").Code
			Expect(code).To(BeElementOf(http.StatusUnauthorized, http.StatusNoContent))
		}
	})
})
