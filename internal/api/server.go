// Package api implements the HTTP side of the notifier: liveness and
// readiness probes plus a JSON twin of the NotifyOrderReady RPC for callers
// that cannot speak gRPC. Handlers are methods on *Server.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyashahama/order-ready-notifier/internal/notify"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// RequestTimeout bounds every request. Default: 30s.
	RequestTimeout time.Duration
}

// Pinger reports whether the order store is reachable. Satisfied by
// store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds all shared dependencies.
type Server struct {
	// notifier runs the order-ready pipeline. Shared with the gRPC server.
	notifier notify.Notifier

	// store backs /readyz.
	store Pinger

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to an http.Server.
func NewServer(n notify.Notifier, p Pinger, cfg Config, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		notifier: n,
		store:    p,
		cfg:      cfg,
		logger:   logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", s.handleReady)

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Post("/orders/{orderID}/notify", s.handleNotifyOrder)
	})

	return r
}
