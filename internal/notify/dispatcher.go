package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nyashahama/order-ready-notifier/internal/email"
	"github.com/nyashahama/order-ready-notifier/internal/order"
)

// ReadySubject is the subject line of every order-ready email.
const ReadySubject = "Order Ready for Collection"

// ReadyMessage builds the order-ready email for one recipient.
func ReadyMessage(to string, o order.Order) email.Message {
	return email.Message{
		To:      to,
		Subject: ReadySubject,
		Body:    fmt.Sprintf("Your order with ID %s is ready to pick up. Enjoy your meal! 🍕🎉", o.ID),
	}
}

// Dispatcher sends the order-ready email through a mail Sender.
type Dispatcher struct {
	mailer  email.Sender
	timeout time.Duration
}

// NewDispatcher returns a Dispatcher whose sends are bounded by timeout. A
// zero timeout means DefaultMailTimeout.
func NewDispatcher(mailer email.Sender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultMailTimeout
	}
	return &Dispatcher{mailer: mailer, timeout: timeout}
}

// Dispatch calls the mailer exactly once. Any mailer error yields
// OutcomeDeliveryFailed together with that error.
func (d *Dispatcher) Dispatch(ctx context.Context, to string, o order.Order) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.mailer.Send(ctx, ReadyMessage(to, o)); err != nil {
		return OutcomeDeliveryFailed, err
	}
	return OutcomeEmailSent, nil
}
