package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/order-ready-notifier/internal/order"
)

// ChangesChannel is the LISTEN/NOTIFY channel the order_changes trigger
// publishes on. The payload is the id of the inserted order_changes row and
// is not read; every notification triggers a claim.
const ChangesChannel = "order_changes"

const (
	// claimBatch caps how many order_changes rows are claimed per transaction.
	claimBatch = 100

	// listenerPingInterval is how long Next waits for a notification before
	// pinging the listener connection to detect a silent disconnect.
	listenerPingInterval = 90 * time.Second
)

// PostgresStore reads the orders and users tables and follows the
// order_changes table. See migrations/0001_orders.sql for the schema.
type PostgresStore struct {
	pool   *sql.DB
	dsn    string
	logger *slog.Logger
}

// OpenPostgres opens the connection pool and verifies the connection is
// reachable before returning.
func OpenPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("store: postgres open: %w", err)
	}

	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: postgres ping: %w", err)
	}
	logger.Info("store: connected to postgres")

	return &PostgresStore{pool: pool, dsn: cfg.URL, logger: logger}, nil
}

// ─── READER ──────────────────────────────────────────────────────────────────

func (s *PostgresStore) FindOrderByID(ctx context.Context, id string) (order.Order, error) {
	var (
		o      order.Order
		userID sql.NullString
	)
	err := s.pool.QueryRowContext(ctx,
		`SELECT id, status, user_id FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Status, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("store: find order %s: %w", id, err)
	}
	o.UserID = userID.String
	return o, nil
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id string) (order.User, error) {
	var (
		u     order.User
		email sql.NullString
	)
	err := s.pool.QueryRowContext(ctx,
		`SELECT id, email FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return order.User{}, ErrNotFound
	}
	if err != nil {
		return order.User{}, fmt.Errorf("store: find user %s: %w", id, err)
	}
	u.Email = email.String
	return u, nil
}

// ─── WATCHER ─────────────────────────────────────────────────────────────────

// WatchOrders starts listening on ChangesChannel and returns a stream that
// yields every unconsumed order_changes row, oldest first.
//
// Rows are claimed and deleted in one transaction, so a row is delivered
// once even when several notifiers share the table, and a row whose writing
// transaction commits late is still picked up by the next claim. Rows left
// over from before this call are delivered first. Notifications are only a
// wake-up signal.
func (s *PostgresStore) WatchOrders(ctx context.Context) (ChangeStream, error) {
	stream := &pgChangeStream{
		pool:   s.pool,
		more:   true,
		failed: make(chan error, 1),
		logger: s.logger,
	}
	stream.listener = pq.NewListener(s.dsn, time.Second, time.Minute, stream.onListenerEvent)
	stream.ping = stream.listener.Ping

	if err := stream.listener.Listen(ChangesChannel); err != nil {
		_ = stream.listener.Close()
		return nil, fmt.Errorf("store: listen %s: %w", ChangesChannel, err)
	}
	stream.armed.Store(true)
	s.logger.Info("store: watching order_changes")
	return stream, nil
}

type pgChangeStream struct {
	pool     *sql.DB
	listener *pq.Listener
	ping     func() error
	logger   *slog.Logger

	pending []order.ChangeEvent
	more    bool // last claim filled a whole batch, or nothing claimed yet

	// failed receives the error of the first failed reconnect attempt once
	// armed is set, i.e. after the initial Listen succeeded.
	failed chan error
	armed  atomic.Bool
}

func (p *pgChangeStream) onListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventDisconnected:
		p.logger.Warn("store: listener disconnected", "error", err)
	case pq.ListenerEventReconnected:
		p.logger.Info("store: listener reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		if !p.armed.Load() {
			p.logger.Warn("store: listener connect attempt failed", "error", err)
			return
		}
		select {
		case p.failed <- err:
		default:
		}
	}
}

func (p *pgChangeStream) Next(ctx context.Context) (order.ChangeEvent, error) {
	for {
		if len(p.pending) > 0 {
			ev := p.pending[0]
			p.pending = p.pending[1:]
			return ev, nil
		}
		if p.more {
			if err := p.claim(ctx); err != nil {
				return order.ChangeEvent{}, err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return order.ChangeEvent{}, ctx.Err()

		case err := <-p.failed:
			return order.ChangeEvent{}, fmt.Errorf("store: listener reconnect failed: %w", err)

		case _, ok := <-p.listener.Notify:
			if !ok {
				return order.ChangeEvent{}, io.EOF
			}
			// A nil notification arrives after a reconnect; claiming from
			// the table covers both cases.
			if err := p.claim(ctx); err != nil {
				return order.ChangeEvent{}, err
			}

		case <-time.After(listenerPingInterval):
			go p.pingListener()
		}
	}
}

// pingListener checks the listener connection. A dead connection also
// surfaces through onListenerEvent once pq notices it.
func (p *pgChangeStream) pingListener() {
	if err := p.ping(); err != nil {
		p.logger.Warn("store: listener ping failed", "error", err)
	}
}

// claim deletes up to claimBatch of the oldest visible order_changes rows and
// queues their events in pending. Events are queued only after the delete
// commits.
func (p *pgChangeStream) claim(ctx context.Context) error {
	tx, err := p.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin claim: %w", err)
	}
	defer tx.Rollback()

	claimed, err := selectChanges(ctx, tx)
	if err != nil {
		return err
	}
	p.more = len(claimed) == claimBatch
	if len(claimed) == 0 {
		return nil
	}

	ids := make([]int64, len(claimed))
	for i, row := range claimed {
		ids[i] = row.ID
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_changes WHERE id = ANY($1)`, pq.Array(ids),
	); err != nil {
		return fmt.Errorf("store: delete claimed order_changes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit claim: %w", err)
	}

	for _, row := range claimed {
		ev, err := row.toEvent()
		if err != nil {
			p.logger.Warn("store: skipping malformed change row", "change_id", row.ID, "error", err)
			continue
		}
		p.pending = append(p.pending, ev)
	}
	return nil
}

// selectChanges locks the oldest unclaimed rows. Rows locked by another
// notifier are skipped rather than waited on.
func selectChanges(ctx context.Context, tx *sql.Tx) ([]changeRow, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, op, order_id, updated_fields
		   FROM order_changes
		  ORDER BY id
		  LIMIT $1
		    FOR UPDATE SKIP LOCKED`,
		claimBatch,
	)
	if err != nil {
		return nil, fmt.Errorf("store: read order_changes: %w", err)
	}
	defer rows.Close()

	var claimed []changeRow
	for rows.Next() {
		var row changeRow
		if err := rows.Scan(&row.ID, &row.Op, &row.OrderID, &row.UpdatedFields); err != nil {
			return nil, fmt.Errorf("store: scan order_changes: %w", err)
		}
		claimed = append(claimed, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate order_changes: %w", err)
	}
	return claimed, nil
}

func (p *pgChangeStream) Close(_ context.Context) error {
	return p.listener.Close()
}

// changeRow is one row of order_changes.
type changeRow struct {
	ID            int64
	Op            string
	OrderID       string
	UpdatedFields pqtype.NullRawMessage
}

func (r changeRow) toEvent() (order.ChangeEvent, error) {
	ev := order.ChangeEvent{
		Operation: order.Operation(r.Op),
		OrderID:   r.OrderID,
	}
	if r.UpdatedFields.Valid && len(r.UpdatedFields.RawMessage) > 0 {
		if err := json.Unmarshal(r.UpdatedFields.RawMessage, &ev.UpdatedFields); err != nil {
			return order.ChangeEvent{}, fmt.Errorf("%w: updated_fields: %v", ErrMalformedEvent, err)
		}
	}
	return ev, nil
}

// ─── LIFECYCLE ───────────────────────────────────────────────────────────────

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.PingContext(ctx); err != nil {
		return fmt.Errorf("store: postgres ping: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close(_ context.Context) error {
	return s.pool.Close()
}
