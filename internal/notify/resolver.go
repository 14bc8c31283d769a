package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nyashahama/order-ready-notifier/internal/order"
	"github.com/nyashahama/order-ready-notifier/internal/store"
)

// Resolved is an order together with its owning user.
type Resolved struct {
	Order order.Order
	User  order.User
}

// Resolver looks up an order and then its owner. It is read-only and never
// retries.
type Resolver struct {
	store   store.Reader
	timeout time.Duration
}

// NewResolver returns a Resolver whose individual lookups are each bounded by
// timeout. A zero timeout means DefaultStoreTimeout.
func NewResolver(r store.Reader, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Resolver{store: r, timeout: timeout}
}

// Resolve returns ErrOrderNotFound when orderID is malformed or unknown (the
// user is then never looked up), ErrUserNotFound when the order's user_id is
// malformed or unknown, and an error wrapping ErrStoreUnavailable when the
// store could not answer.
func (r *Resolver) Resolve(ctx context.Context, orderID string) (Resolved, error) {
	if _, err := order.ParseID(orderID); err != nil {
		return Resolved{}, ErrOrderNotFound
	}

	o, err := lookup(ctx, r.timeout, func(ctx context.Context) (order.Order, error) {
		return r.store.FindOrderByID(ctx, orderID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return Resolved{}, ErrOrderNotFound
	}
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: order %s: %w", ErrStoreUnavailable, orderID, err)
	}

	if _, err := order.ParseID(o.UserID); err != nil {
		return Resolved{Order: o}, ErrUserNotFound
	}

	u, err := lookup(ctx, r.timeout, func(ctx context.Context) (order.User, error) {
		return r.store.FindUserByID(ctx, o.UserID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return Resolved{Order: o}, ErrUserNotFound
	}
	if err != nil {
		return Resolved{Order: o}, fmt.Errorf("%w: user %s: %w", ErrStoreUnavailable, o.UserID, err)
	}

	return Resolved{Order: o, User: u}, nil
}

func lookup[T any](ctx context.Context, timeout time.Duration, find func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return find(ctx)
}
