package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/servicekit-go/servicekit/config"
)

// Severity classifies how urgent an alert is and decides which
// channels receive it.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// AlertPayload is the JSON body delivered to the generic webhook for
// every alert, regardless of severity.
type AlertPayload struct {
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// EmailSender delivers an alert email to the configured admin address.
type EmailSender interface {
	SendEmail(ctx context.Context, subject, body string) error
}

// Mailer is an EmailSender that can also target arbitrary recipients,
// as the background email task requires.
type Mailer interface {
	EmailSender
	SendTo(ctx context.Context, to, subject, body string) error
}

// MessageSender delivers a short text message (Slack, SMS).
type MessageSender interface {
	SendMessage(ctx context.Context, message string) error
}

// PayloadSender delivers a structured alert payload (generic webhook).
type PayloadSender interface {
	SendPayload(ctx context.Context, payload AlertPayload) error
}

// Notifier fans an alert out to its channels based on severity:
//
//	CRITICAL: email + Slack + SMS
//	WARNING:  email + Slack
//	INFO:     Slack
//
// The generic webhook always fires. A failing channel never prevents
// the remaining channels from being attempted.
type Notifier struct {
	Email   EmailSender
	Slack   MessageSender
	SMS     MessageSender
	Webhook PayloadSender

	logger *zerolog.Logger
}

// NewNotifier builds a Notifier with every channel wired from config.
func NewNotifier(cfg *config.Config, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		Email:   NewMailer(cfg, logger),
		Slack:   NewSlackSender(cfg, logger),
		SMS:     NewSMSSender(cfg, logger),
		Webhook: NewWebhookSender(cfg, logger),
		logger:  logger,
	}
}

// Send dispatches an alert to the channels its severity warrants.
//
// Channel failures are logged individually and joined into the
// returned error; delivery to the remaining channels always proceeds.
func (n *Notifier) Send(ctx context.Context, subject, message string, severity Severity) error {
	n.logger.Info().
		Str("severity", string(severity)).
		Str("subject", subject).
		Msg("sending alert")

	var errs []error

	switch severity {
	case SeverityCritical:
		errs = append(errs, n.sendEmail(ctx, subject, message))
		errs = append(errs, n.sendSlack(ctx, fmt.Sprintf("*CRITICAL ALERT*: %s", message)))
		errs = append(errs, n.sendSMS(ctx, message))

	case SeverityWarning:
		errs = append(errs, n.sendEmail(ctx, subject, message))
		errs = append(errs, n.sendSlack(ctx, fmt.Sprintf("*WARNING ALERT*: %s", message)))

	case SeverityInfo:
		errs = append(errs, n.sendSlack(ctx, fmt.Sprintf("*INFO ALERT*: %s", message)))
	}

	errs = append(errs, n.sendWebhook(ctx, AlertPayload{
		Subject:  subject,
		Message:  message,
		Severity: severity,
	}))

	return errors.Join(errs...)
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) error {
	if n.Email == nil {
		return nil
	}
	if err := n.Email.SendEmail(ctx, subject, body); err != nil {
		n.logger.Error().Err(err).Str("channel", "email").Msg("failed to send alert email")
		return err
	}
	return nil
}

func (n *Notifier) sendSlack(ctx context.Context, message string) error {
	if n.Slack == nil {
		return nil
	}
	if err := n.Slack.SendMessage(ctx, message); err != nil {
		n.logger.Error().Err(err).Str("channel", "slack").Msg("failed to send slack alert")
		return err
	}
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, message string) error {
	if n.SMS == nil {
		return nil
	}
	if err := n.SMS.SendMessage(ctx, message); err != nil {
		n.logger.Error().Err(err).Str("channel", "sms").Msg("failed to send sms alert")
		return err
	}
	return nil
}

func (n *Notifier) sendWebhook(ctx context.Context, payload AlertPayload) error {
	if n.Webhook == nil {
		return nil
	}
	if err := n.Webhook.SendPayload(ctx, payload); err != nil {
		n.logger.Error().Err(err).Str("channel", "webhook").Msg("failed to send webhook alert")
		return err
	}
	return nil
}
