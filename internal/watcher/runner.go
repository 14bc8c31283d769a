package watcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nyashahama/order-ready-notifier/internal/notify"
)

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. Zero fields fall back
// to DefaultRunnerConfig.
type RunnerConfig struct {
	// Workers is the number of concurrent pipeline goroutines. Default: 4.
	Workers int

	// QueueSize is the number of ready transitions that may wait for a free
	// worker before Submit blocks the feed. Default: Workers*2.
	QueueSize int

	// JobTimeout bounds one full pipeline run. Default: 30s.
	JobTimeout time.Duration
}

// DefaultRunnerConfig returns safe production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:    4,
		QueueSize:  8,
		JobTimeout: 30 * time.Second,
	}
}

// Runner manages a fixed pool of goroutines that run the notification
// pipeline for order ids handed over by the watcher. It bounds the number of
// in-flight runs no matter how bursty the feed is.
type Runner struct {
	notifier notify.Notifier
	cfg      RunnerConfig
	logger   *slog.Logger

	queue chan string
	wg    sync.WaitGroup
}

// NewRunner constructs a Runner. Call Start to begin processing.
func NewRunner(n notify.Notifier, cfg RunnerConfig, logger *slog.Logger) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}

	return &Runner{
		notifier: n,
		cfg:      cfg,
		logger:   logger,
		queue:    make(chan string, cfg.QueueSize),
	}
}

// errRunnerStopped is returned by Submit once ctx is done.
var errRunnerStopped = errors.New("watcher: runner stopped")

// Submit hands orderID to the pool. It returns as soon as the id is queued and
// blocks only while the queue is full, which applies backpressure to the feed
// instead of dropping the transition.
func (r *Runner) Submit(ctx context.Context, orderID string) error {
	select {
	case r.queue <- orderID:
		return nil
	case <-ctx.Done():
		return errRunnerStopped
	}
}

// Start launches the worker pool and blocks until ctx is cancelled and every
// worker has returned. Runs already in progress are allowed to finish within
// JobTimeout; ids still queued are dropped and logged.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("watcher: runner starting", "workers", r.cfg.Workers, "queue_size", r.cfg.QueueSize)

	for i := range r.cfg.Workers {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	r.wg.Wait()

	if dropped := len(r.queue); dropped > 0 {
		r.logger.Warn("watcher: dropped queued transitions on shutdown", "count", dropped)
	}
	r.logger.Info("watcher: runner stopped")
}

// work is the inner loop for each worker goroutine.
func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)
	log.Debug("watcher: worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("watcher: worker stopping")
			return
		case orderID := <-r.queue:
			r.run(ctx, orderID, log)
		}
	}
}

// run executes one pipeline run. The pipeline logs its own outcome; a store
// failure ends this run only and the feed keeps going.
func (r *Runner) run(ctx context.Context, orderID string, log *slog.Logger) {
	// Shutdown must not abort an email that is already being sent.
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	res, err := r.notifier.Notify(jobCtx, orderID)
	log.Debug("watcher: run finished",
		"run_id", res.RunID,
		"outcome", res.Outcome.String(),
		"failed", err != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
