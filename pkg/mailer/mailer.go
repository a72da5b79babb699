package mailer

import (
	"context"
	"fmt"

	"finance-dashboard/config"
	"finance-dashboard/pkg/logger"

	"gopkg.in/gomail.v2"
)

// Mailer delivers plain-text notifications.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
	Enabled() bool
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpMailer struct {
	from   string
	dialer dialer
	log    *logger.Logger
}

// New returns an SMTP mailer, or a no-op mailer when no host is configured.
func New(cfg config.SMTP, log *logger.Logger) Mailer {
	if cfg.Host == "" {
		return nopMailer{log: log}
	}
	return &smtpMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		log:    log,
	}
}

func (m *smtpMailer) Enabled() bool { return true }

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.log.ErrorContext(ctx, "Failed to send email", logger.StringField("to", to), logger.ErrorField(err))
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.log.DebugContext(ctx, "Email sent", logger.StringField("to", to), logger.StringField("subject", subject))
	return nil
}

type nopMailer struct {
	log *logger.Logger
}

func (n nopMailer) Enabled() bool { return false }

func (n nopMailer) Send(ctx context.Context, to, subject, body string) error {
	n.log.DebugContext(ctx, "SMTP not configured, email dropped", logger.StringField("to", to), logger.StringField("subject", subject))
	return nil
}
