// Package email defines the interface for transactional email delivery and
// provides SMTP-backed and Resend-backed implementations.
package email

import "context"

// Message is a single plain-text email.
type Message struct {
	To      string // recipient address, passed through unvalidated
	Subject string
	Body    string
}

// Sender is the interface the notification dispatcher uses to send email.
// Tests inject a stub that records calls without hitting the network.
type Sender interface {
	// Send delivers m exactly once. It never retries. A malformed recipient,
	// rejected credentials, and network failures all surface as a non-nil
	// error.
	//
	// Implementations must be safe to call concurrently.
	Send(ctx context.Context, m Message) error
}
