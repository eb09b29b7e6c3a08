// Package server composes the bundled development API server: a sqlite
// store behind the same REST surface the hosted Oncolly backend exposes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/teknos/oncolly/internal/adapters/server/auth"
	"github.com/teknos/oncolly/internal/adapters/server/httpapi"
	"github.com/teknos/oncolly/internal/adapters/storage/sqlite"
)

// defaultBindAddress defines the localhost-first serve default.
const defaultBindAddress = "127.0.0.1:8080"

// defaultShutdownTimeout bounds graceful shutdown time once context
// cancellation starts.
const defaultShutdownTimeout = 5 * time.Second

// Config defines serve-mode configuration.
type Config struct {
	Bind      string
	DBPath    string
	JWTSecret string
	Seed      bool
}

// NewHandler composes one root HTTP mux containing health and API endpoints.
func NewHandler(cfg Config, store *sqlite.Store) (http.Handler, error) {
	authenticator, err := auth.New(cfg.JWTSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("configure authenticator: %w", err)
	}
	apiHandler := httpapi.NewHandler(store, authenticator)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", writeHealthStatus)
	mux.Handle("/api/", http.StripPrefix("/api", apiHandler))
	return mux, nil
}

// Run opens the store, optionally seeds demo accounts, and blocks until
// shutdown or startup failure.
func Run(ctx context.Context, cfg Config, logger *log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = normalizeConfig(cfg)
	if logger == nil {
		logger = log.Default()
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if cfg.Seed {
		if err := Seed(ctx, store); err != nil {
			return fmt.Errorf("seed demo accounts: %w", err)
		}
	}

	handler, err := NewHandler(cfg, store)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	httpServer := &http.Server{
		Addr:    cfg.Bind,
		Handler: handler,
	}
	logger.Info("development API server listening", "bind", cfg.Bind, "db", cfg.DBPath)

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		shutdownErr := httpServer.Shutdown(shutdownCtx)
		serveErr := <-serveErrCh
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) {
			return fmt.Errorf("shutdown server: %w", shutdownErr)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve after shutdown: %w", serveErr)
		}
		return nil
	}
}

// normalizeConfig applies serve-mode defaults.
func normalizeConfig(cfg Config) Config {
	cfg.Bind = strings.TrimSpace(cfg.Bind)
	if cfg.Bind == "" {
		cfg.Bind = defaultBindAddress
	}
	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "oncolly-dev-secret"
	}
	return cfg
}

// writeHealthStatus responds with a deterministic readiness payload.
func writeHealthStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
