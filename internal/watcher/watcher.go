// Package watcher is the change-feed trigger for the notification pipeline.
// It follows the order store's mutation feed, keeps only transitions of an
// order's status to "Ready", and hands each one to a bounded Runner so that a
// slow email never holds up the feed.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/nyashahama/order-ready-notifier/internal/store"
)

// ErrFeedFailed wraps the error that ended a watch: the feed was closed by
// the server or its connection was lost. Restarting is the caller's decision.
var ErrFeedFailed = errors.New("watcher: order feed failed")

// State is the lifecycle state of a Watcher.
type State int32

const (
	StateIdle State = iota
	StateWatching
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Watcher consumes one change stream. A Watcher is single-use: once Run has
// returned it stays in StateStopped.
type Watcher struct {
	feed   store.Watcher
	runner *Runner
	logger *slog.Logger
	state  atomic.Int32
}

// New constructs a Watcher in StateIdle.
func New(feed store.Watcher, runner *Runner, logger *slog.Logger) *Watcher {
	return &Watcher{feed: feed, runner: runner, logger: logger}
}

// State reports the current lifecycle state.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

// Run opens the feed, starts the runner, and processes events in feed order
// until ctx is cancelled (returns nil) or the feed fails (returns an error
// wrapping ErrFeedFailed). Before returning it stops the runner and waits for
// in-flight pipeline runs.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.state.Store(int32(StateStopped))

	stream, err := w.feed.WatchOrders(ctx)
	if err != nil {
		return fmt.Errorf("%w: open: %w", ErrFeedFailed, err)
	}
	defer func() {
		if err := stream.Close(context.WithoutCancel(ctx)); err != nil {
			w.logger.Warn("watcher: close feed", "error", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	runnerDone := make(chan struct{})
	go func() {
		w.runner.Start(runCtx)
		close(runnerDone)
	}()
	defer func() {
		cancel()
		<-runnerDone
	}()

	w.state.Store(int32(StateWatching))
	w.logger.Info("watcher: watching order feed")

	for {
		ev, err := stream.Next(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			w.logger.Info("watcher: stopping", "reason", ctx.Err())
			return nil
		case errors.Is(err, store.ErrMalformedEvent):
			w.logger.Warn("watcher: skipping undecodable event", "error", err)
			continue
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: feed closed by server", ErrFeedFailed)
		default:
			return fmt.Errorf("%w: %w", ErrFeedFailed, err)
		}

		if !ev.BecameReady() {
			w.logger.Debug("watcher: event discarded",
				"operation", ev.Operation,
				"order_id", ev.OrderID,
			)
			continue
		}

		w.logger.Info("watcher: order became ready", "order_id", ev.OrderID)
		if err := w.runner.Submit(ctx, ev.OrderID); err != nil {
			return nil
		}
	}
}
