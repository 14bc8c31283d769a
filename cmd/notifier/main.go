package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nyashahama/order-ready-notifier/internal/api"
	"github.com/nyashahama/order-ready-notifier/internal/config"
	"github.com/nyashahama/order-ready-notifier/internal/email"
	"github.com/nyashahama/order-ready-notifier/internal/notify"
	"github.com/nyashahama/order-ready-notifier/internal/rpc"
	"github.com/nyashahama/order-ready-notifier/internal/server"
	"github.com/nyashahama/order-ready-notifier/internal/store"
	"github.com/nyashahama/order-ready-notifier/internal/watcher"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded",
		"env", cfg.Env,
		"port", cfg.Port,
		"mail_provider", cfg.MailProvider,
		"watch_enabled", cfg.WatchEnabled,
	)

	// Root context cancelled by OS signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Order store ───────────────────────────────────────────────────────────
	st, err := store.Open(ctx, store.Config{
		URL:              cfg.StoreURL,
		Database:         cfg.StoreDatabase,
		OrdersCollection: cfg.OrdersCollection,
		UsersCollection:  cfg.UsersCollection,
		ConnectTimeout:   10 * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn("store: close", "error", err)
		}
	}()
	logger.Info("store connected")

	// ── Email ─────────────────────────────────────────────────────────────────
	mailer, err := newMailer(cfg)
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}
	logger.Info("email: using " + cfg.MailProvider)

	// ── Pipeline ──────────────────────────────────────────────────────────────
	pipeline := notify.New(st, mailer, notify.Config{
		StoreTimeout: cfg.StoreTimeout,
		MailTimeout:  cfg.MailTimeout,
	}, logger)

	// ── Listener (gRPC + HTTP) ────────────────────────────────────────────────
	l, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := server.New(l,
		rpc.NewServer(pipeline, logger),
		api.NewServer(pipeline, st, api.Config{Env: cfg.Env}, logger),
		logger,
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(); err != nil {
			serverErr <- err
		}
	}()

	// ── Change feed ───────────────────────────────────────────────────────────
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	watchErr := make(chan error, 1)
	watchDone := make(chan struct{})
	if cfg.WatchEnabled {
		runner := watcher.NewRunner(pipeline, watcher.RunnerConfig{
			Workers:    cfg.WorkerCount,
			QueueSize:  cfg.QueueSize,
			JobTimeout: cfg.JobTimeout,
		}, logger)
		w := watcher.New(st, runner, logger)
		go func() {
			defer close(watchDone)
			if err := w.Run(watchCtx); err != nil {
				watchErr <- err
			}
		}()
	} else {
		close(watchDone)
		logger.Info("watcher: disabled")
	}

	// Block until a signal arrives, the listener dies, or the feed fails.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	case err := <-watchErr:
		runErr = fmt.Errorf("watcher: %w", err)
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown: %w", err))
	}

	cancelWatch()
	select {
	case <-watchDone:
	case <-shutdownCtx.Done():
		logger.Warn("watcher: in-flight notifications still running at shutdown deadline")
	}

	if runErr == nil {
		logger.Info("shutdown complete")
	}
	return runErr
}

// newMailer builds the configured mail transport.
func newMailer(cfg *config.Config) (email.Sender, error) {
	switch cfg.MailProvider {
	case config.MailProviderResend:
		return email.NewResendClient(cfg.ResendAPIKey, cfg.EmailFromAddr, cfg.EmailFromName), nil
	default:
		return email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			FromAddr: cfg.EmailFromAddr,
			FromName: cfg.EmailFromName,
			Timeout:  cfg.MailTimeout,
		})
	}
}
