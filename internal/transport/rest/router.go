package rest

import (
	"database/sql"
	"log/slog"

	"github.com/alicomputer/retail-pos/internal"
	"github.com/alicomputer/retail-pos/internal/auth"
	"github.com/alicomputer/retail-pos/internal/identity"
	"github.com/alicomputer/retail-pos/internal/navigation"
	"github.com/alicomputer/retail-pos/internal/store"
	"github.com/alicomputer/retail-pos/internal/transport/middleware"
	"github.com/alicomputer/retail-pos/internal/transport/swagger"
	"github.com/go-chi/chi"
)

// Dependencies are the handlers and collaborators the router mounts.
type Dependencies struct {
	Config            internal.ServerConfig
	Production        bool
	Store             store.Store
	DB                *sql.DB
	Authority         auth.SessionAuthority
	AuthHandler       *auth.Handler
	IdentityHandler   *identity.Handler
	NavigationHandler *navigation.Handler
	Logger            *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	healthHandler := NewHealthHandler(deps.Store, deps.DB)
	rbac := auth.NewRBACAuthorization(deps.Authority, deps.Logger)

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.CORS(deps.Config.AllowedOrigins))
	router.Use(middleware.SecureHeaders(deps.Logger, deps.Production))
	router.Use(middleware.LoggingMiddleware(deps.Logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get(swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if deps.AuthHandler != nil {
			r.Route("/session", func(sr chi.Router) {
				sr.Get("/", deps.AuthHandler.GetSession)
				sr.With(middleware.LoginRateLimit(deps.Config.LoginRateLimit)).Post("/login", deps.AuthHandler.Login)
				sr.Post("/logout", deps.AuthHandler.Logout)
				sr.Get("/capabilities/{capability}", deps.AuthHandler.CheckCapability)
				sr.With(rbac.RequireAuthenticated()).Get("/capabilities", deps.AuthHandler.GetCapabilities)
			})
		}

		if deps.NavigationHandler != nil {
			r.Route("/navigation", func(nr chi.Router) {
				nr.Get("/tabs", deps.NavigationHandler.GetTabs)
				nr.With(rbac.RequireCapability(auth.CapSettingsRead)).Get("/settings", deps.NavigationHandler.GetSettingsSections)
			})
		}

		if deps.IdentityHandler != nil {
			r.With(rbac.RequireCapability(auth.CapUsersRead)).Get("/identities", deps.IdentityHandler.ListIdentities)
		}
	})
}
