package email

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the relay settings for NewSMTPSender.
type SMTPConfig struct {
	Host     string // e.g. "smtp.gmail.com"
	Port     int    // 587 for STARTTLS, 465 for implicit TLS
	Username string
	Password string // app password for Gmail
	FromAddr string
	FromName string
	Timeout  time.Duration // dial + send; default 15s
}

// smtpSender is the Sender backed by an authenticated SMTP relay. One client
// is shared by all calls; go-mail serialises access to it.
type smtpSender struct {
	client   *mail.Client
	fromAddr string
	fromName string
}

// NewSMTPSender builds a Sender for the relay in cfg. It does not connect;
// every Send dials, delivers one message, and hangs up.
func NewSMTPSender(cfg SMTPConfig) (Sender, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("email: smtp client: %w", err)
	}

	return &smtpSender{
		client:   client,
		fromAddr: cfg.FromAddr,
		fromName: cfg.FromName,
	}, nil
}

func (s *smtpSender) Send(ctx context.Context, m Message) error {
	msg := mail.NewMsg()

	var err error
	if s.fromName != "" {
		err = msg.FromFormat(s.fromName, s.fromAddr)
	} else {
		err = msg.From(s.fromAddr)
	}
	if err != nil {
		return fmt.Errorf("email: sender address: %w", err)
	}

	// Recipient syntax is checked here, before any network traffic.
	if err := msg.To(m.To); err != nil {
		return fmt.Errorf("email: recipient address: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("email: smtp send: %w", err)
	}
	return nil
}
