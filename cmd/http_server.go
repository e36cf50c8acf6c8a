package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicomputer/retail-pos/internal/auth"
	"github.com/alicomputer/retail-pos/internal/identity"
	"github.com/alicomputer/retail-pos/internal/navigation"
	"github.com/alicomputer/retail-pos/internal/transport"
	"github.com/alicomputer/retail-pos/internal/transport/rest"
	"github.com/alicomputer/retail-pos/internal/transport/swagger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server exposing the session, navigation and identity API`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

func startHTTPServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	deps, err := initializeDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	if _, err := swagger.Load(ctx); err != nil {
		return fmt.Errorf("openapi document: %w", err)
	}

	if err := deps.Authority.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	session := deps.Authority.Session()
	deps.Logger.Info("session restored", "state", session.State())

	router := setupRoutes(deps)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "store", cfg.Store.Backend, "directory", cfg.Directory)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
	}

	deps.Logger.Info("Server stopped")
	return nil
}

func setupRoutes(deps *Dependencies) *chi.Mux {
	base := transport.NewBaseHandler(deps.Logger)

	router := chi.NewRouter()
	routeDeps := rest.Dependencies{
		Config:            deps.Config.Server,
		Production:        deps.Config.IsProduction(),
		Store:             deps.Store,
		Authority:         deps.Authority,
		AuthHandler:       auth.NewHandler(base, deps.Authority),
		IdentityHandler:   identity.NewHandler(base, identity.NewService(deps.Directory, deps.Logger)),
		NavigationHandler: navigation.NewHandler(base, deps.Authority),
		Logger:            deps.Logger,
	}
	if deps.DB != nil {
		routeDeps.DB = deps.DB.DB
	}
	rest.RegisterAllRoutes(router, routeDeps)
	return router
}
