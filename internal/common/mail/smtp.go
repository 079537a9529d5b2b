package mail

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// RequireTLS fails the send when the server does not offer STARTTLS.
	RequireTLS bool
}

// SMTPMailer sends through an authenticated SMTP relay such as Gmail.
// Port 465 uses implicit TLS; other ports upgrade with STARTTLS when offered.
type SMTPMailer struct {
	cfg     SMTPConfig
	timeout time.Duration
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:     cfg,
		timeout: 15 * time.Second,
	}
}

func (m *SMTPMailer) options() []gomail.Option {
	policy := gomail.TLSOpportunistic
	if m.cfg.RequireTLS {
		policy = gomail.TLSMandatory
	}

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTimeout(m.timeout),
		gomail.WithTLSPolicy(policy),
	}
	if m.cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	}
	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	built, err := msg.Build()
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.cfg.Host, m.options()...)
	if err != nil {
		return fmt.Errorf("invalid SMTP settings: %w", err)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("%w: failed to connect to SMTP server %s: %w", ErrTransport, addr, err)
	}
	defer client.Close()

	if err := client.Send(built); err != nil {
		return fmt.Errorf("failed to send to %s: %w", strings.Join(msg.To, ", "), err)
	}
	return nil
}
