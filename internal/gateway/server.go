// Package gateway is the HTTP face of the service: it authenticates callers
// by Vault token pass-through, runs chat turns, and streams the resulting
// events as newline-delimited JSON.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/vaultgate/internal/agent"
	"github.com/haasonsaas/vaultgate/internal/config"
	"github.com/haasonsaas/vaultgate/internal/observability"
	"github.com/haasonsaas/vaultgate/internal/sessions"
	"github.com/haasonsaas/vaultgate/internal/vault"
)

// Server hosts the chat API.
type Server struct {
	cfg      *config.Config
	engine   *agent.Engine
	pool     *vault.Pool
	store    sessions.Store
	logger   *slog.Logger
	metrics  *observability.Metrics
	registry *prometheus.Registry
	router   chi.Router
}

// Options wires a Server. All fields are required except Registry.
type Options struct {
	Config  *config.Config
	Engine  *agent.Engine
	Pool    *vault.Pool
	Store   sessions.Store
	Logger  *slog.Logger
	Metrics *observability.Metrics

	// Registry serves /metrics. Nil uses the default gatherer.
	Registry *prometheus.Registry
}

// NewServer builds the router and handlers.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      opts.Config,
		engine:   opts.Engine,
		pool:     opts.Pool,
		store:    opts.Store,
		logger:   logger.With("component", "gateway"),
		metrics:  opts.Metrics,
		registry: opts.Registry,
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.Server.FrontendOrigin))

	r.Get("/healthz", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Get("/sessions/{id}", s.handleSessionHistory)
	r.Delete("/sessions/{id}", s.handleSessionDelete)

	var metricsHandler http.Handler
	if s.registry != nil {
		metricsHandler = promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	} else {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	s.router = r
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		// Streams stay open as long as a turn runs; no write timeout.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr, "vault_addr", s.cfg.Vault.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.pool.Close()
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"vault_addr": s.cfg.Vault.Address,
	})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := s.store.History(r.Context(), id, 0)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"messages":   history,
	})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
