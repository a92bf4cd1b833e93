package notification

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/servicekit-go/servicekit/config"
)

// SMTPMailer sends alert email through a plain SMTP submission server
// using STARTTLS and password auth.
type SMTPMailer struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	fromName   string
	adminEmail string
	logger     *zerolog.Logger
}

// NewSMTPMailer creates an SMTP mailer from config.
func NewSMTPMailer(cfg *config.Config, logger *zerolog.Logger) *SMTPMailer {
	from := cfg.Email.FromAddress
	if from == "" {
		from = cfg.Email.SMTPUsername
	}

	return &SMTPMailer{
		host:       cfg.Email.SMTPServer,
		port:       cfg.Email.SMTPPort,
		username:   cfg.Email.SMTPUsername,
		password:   cfg.Email.SMTPPassword,
		from:       from,
		fromName:   cfg.Email.FromName,
		adminEmail: cfg.Email.AdminEmail,
		logger:     logger,
	}
}

// SendEmail delivers a plain-text alert email to the admin address.
func (m *SMTPMailer) SendEmail(ctx context.Context, subject, body string) error {
	return m.SendTo(ctx, m.adminEmail, subject, body)
}

// SendTo delivers a plain-text email to an arbitrary recipient.
//
// An unconfigured mailer logs a warning and returns nil, matching the
// behavior of the other optional channels.
func (m *SMTPMailer) SendTo(ctx context.Context, to, subject, body string) error {
	if m.host == "" || m.username == "" {
		m.logger.Warn().Msg("smtp is not configured, skipping email alert")
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return errors.Wrap(err, "invalid smtp sender address")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "invalid smtp recipient address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create smtp client")
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email via smtp: %w", err)
	}

	m.logger.Info().Str("to", to).Msg("email sent via smtp")
	return nil
}
