package notification

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/servicekit-go/servicekit/config"
)

// ResendMailer sends alert email through the Resend API.
type ResendMailer struct {
	client     *resend.Client
	from       string
	fromName   string
	adminEmail string
	logger     *zerolog.Logger
}

// NewResendMailer creates a Resend-backed mailer from config.
func NewResendMailer(cfg *config.Config, logger *zerolog.Logger) *ResendMailer {
	return &ResendMailer{
		client:     resend.NewClient(cfg.Email.ResendAPIKey),
		from:       cfg.Email.FromAddress,
		fromName:   cfg.Email.FromName,
		adminEmail: cfg.Email.AdminEmail,
		logger:     logger,
	}
}

// SendEmail delivers a plain-text alert email to the admin address via
// the Resend API.
func (m *ResendMailer) SendEmail(ctx context.Context, subject, body string) error {
	return m.SendTo(ctx, m.adminEmail, subject, body)
}

// SendTo delivers a plain-text email to an arbitrary recipient via the
// Resend API.
func (m *ResendMailer) SendTo(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", m.fromName, m.from),
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send email via resend: %w", err)
	}

	m.logger.Info().Str("to", to).Msg("email sent via resend")
	return nil
}

// NewMailer returns the Mailer selected by config; the SMTP provider
// is the default.
func NewMailer(cfg *config.Config, logger *zerolog.Logger) Mailer {
	if cfg.Email.Provider == "resend" {
		return NewResendMailer(cfg, logger)
	}
	return NewSMTPMailer(cfg, logger)
}
