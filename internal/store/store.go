// Package store is the notifier's read-only window onto the ordering system's
// database. It exposes lookups by identifier and a live feed of order
// mutations, with a MongoDB backend (change streams) and a Postgres backend
// (trigger-populated change table announced over LISTEN/NOTIFY).
//
// Dependency rule: store imports order only. It never imports notify, watcher,
// rpc, api, or email.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nyashahama/order-ready-notifier/internal/order"
)

// ─── ERRORS ──────────────────────────────────────────────────────────────────

// ErrNotFound is returned by the Find methods when no document matches the
// identifier, including when the identifier is not a valid object id.
var ErrNotFound = errors.New("store: not found")

// ErrMalformedEvent is returned by ChangeStream.Next when a single feed entry
// could not be decoded. The stream itself is still healthy and Next may be
// called again.
var ErrMalformedEvent = errors.New("store: malformed change event")

// ─── INTERFACES ──────────────────────────────────────────────────────────────

// Reader performs single-document lookups. Implementations must be safe for
// concurrent use.
type Reader interface {
	FindOrderByID(ctx context.Context, id string) (order.Order, error)
	FindUserByID(ctx context.Context, id string) (order.User, error)
}

// ChangeStream is a live, ordered sequence of order mutations.
type ChangeStream interface {
	// Next blocks until the next mutation is available. It returns io.EOF when
	// the feed has been closed by the server, ctx.Err() when ctx is done, and
	// any other error when the underlying connection failed.
	Next(ctx context.Context) (order.ChangeEvent, error)

	Close(ctx context.Context) error
}

// Watcher opens change feeds over the orders collection.
type Watcher interface {
	WatchOrders(ctx context.Context) (ChangeStream, error)
}

// Store is everything the notifier needs from a backend.
type Store interface {
	Reader
	Watcher

	// Ping verifies the backend is reachable. Used at startup and by /readyz.
	Ping(ctx context.Context) error

	Close(ctx context.Context) error
}

// ─── OPEN ────────────────────────────────────────────────────────────────────

// Config selects and parameterises a backend. The backend is chosen from the
// scheme of URL.
type Config struct {
	URL string

	// MongoDB only.
	Database         string
	OrdersCollection string
	UsersCollection  string

	// ConnectTimeout bounds the initial connect + ping. Default: 10s.
	ConnectTimeout time.Duration
}

// Open connects to the backend named by cfg.URL and verifies it is reachable.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	switch {
	case IsMongoURL(cfg.URL):
		st, err := OpenMongo(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	case IsPostgresURL(cfg.URL):
		st, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("store: unsupported connection string scheme")
	}
}

// IsMongoURL reports whether url addresses a MongoDB deployment.
func IsMongoURL(url string) bool {
	return strings.HasPrefix(url, "mongodb://") || strings.HasPrefix(url, "mongodb+srv://")
}

// IsPostgresURL reports whether url addresses a Postgres server.
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}
