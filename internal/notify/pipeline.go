// Package notify implements the order-ready notification pipeline: resolve
// the order and its owner, check the owner can be emailed, send the email, and
// report one Outcome. Both trigger paths (the change feed watcher and the RPC
// server) call Pipeline.Notify.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/order-ready-notifier/internal/email"
	"github.com/nyashahama/order-ready-notifier/internal/store"
)

const (
	DefaultStoreTimeout = 5 * time.Second
	DefaultMailTimeout  = 15 * time.Second
)

// ─── ERRORS ──────────────────────────────────────────────────────────────────

var (
	// ErrOrderNotFound and ErrUserNotFound are expected business outcomes,
	// returned by Resolver and folded into an Outcome by Pipeline.
	ErrOrderNotFound = errors.New("notify: order not found")
	ErrUserNotFound  = errors.New("notify: user not found")

	// ErrStoreUnavailable wraps any lookup failure that is not a clean miss.
	// Pipeline.Notify returns it to the caller.
	ErrStoreUnavailable = errors.New("notify: order store unavailable")
)

// ─── NOTIFIER INTERFACE ───────────────────────────────────────────────────────

// Notifier is the narrow interface the trigger adapters depend on. The
// concrete implementation is *Pipeline; tests inject stubs.
type Notifier interface {
	Notify(ctx context.Context, orderID string) (Result, error)
}

// Result describes one pipeline run.
type Result struct {
	RunID     string // uuid, also attached to every log line of the run
	OrderID   string
	Outcome   Outcome
	Recipient string // set once the gate passed

	// Err is the mailer error behind OutcomeDeliveryFailed. It is for logs
	// only and must not be shown to remote callers.
	Err error
}

// ─── PIPELINE ─────────────────────────────────────────────────────────────────

// Config holds the safety timeouts applied around collaborator calls.
type Config struct {
	StoreTimeout time.Duration // per lookup
	MailTimeout  time.Duration // per send
}

// Pipeline wires Resolver → Gate → Dispatcher. It holds no mutable state and
// is safe for concurrent use; concurrent runs for the same order are not
// deduplicated.
type Pipeline struct {
	resolver   *Resolver
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// New constructs a Pipeline over the given collaborators.
func New(st store.Reader, mailer email.Sender, cfg Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		resolver:   NewResolver(st, cfg.StoreTimeout),
		dispatcher: NewDispatcher(mailer, cfg.MailTimeout),
		logger:     logger,
	}
}

// Notify runs the pipeline once for orderID:
//
//  1. Resolve the order; a miss ends the run with OutcomeOrderNotFound.
//  2. Resolve its user; a miss ends the run with OutcomeUserUnresolved.
//  3. Gate on the user's email; none ends the run with OutcomeUserUnresolved.
//  4. Send one email: OutcomeEmailSent or OutcomeDeliveryFailed.
//
// The returned error is non-nil only when the store could not be queried; the
// Result then carries no Outcome.
func (p *Pipeline) Notify(ctx context.Context, orderID string) (Result, error) {
	res := Result{RunID: uuid.NewString(), OrderID: orderID}
	log := p.logger.With("run_id", res.RunID, "order_id", orderID)

	// ── 1–2. Resolve ──────────────────────────────────────────────────────────
	pair, err := p.resolver.Resolve(ctx, orderID)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		res.Outcome = OutcomeOrderNotFound
		log.Info("notify: order not found")
		return res, nil
	case errors.Is(err, ErrUserNotFound):
		res.Outcome = OutcomeUserUnresolved
		log.Info("notify: user not found", "user_id", pair.Order.UserID)
		return res, nil
	case err != nil:
		log.Error("notify: resolve failed", "error", err)
		return res, err
	}

	// ── 3. Gate ───────────────────────────────────────────────────────────────
	to, ok := Gate(pair)
	if !ok {
		res.Outcome = OutcomeUserUnresolved
		log.Info("notify: user has no email address", "user_id", pair.User.ID)
		return res, nil
	}
	res.Recipient = to

	// ── 4. Dispatch ───────────────────────────────────────────────────────────
	res.Outcome, res.Err = p.dispatcher.Dispatch(ctx, to, pair.Order)
	if res.Err != nil {
		log.Warn("notify: email delivery failed", "to", to, "error", res.Err)
		return res, nil
	}

	log.Info("notify: email sent", "to", to)
	return res, nil
}
