package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/servicekit-go/servicekit/config"
)

// SlackSender posts alert messages to a Slack incoming webhook.
type SlackSender struct {
	webhookURL string
	logger     *zerolog.Logger
}

// NewSlackSender creates a Slack sender from config.
func NewSlackSender(cfg *config.Config, logger *zerolog.Logger) *SlackSender {
	return &SlackSender{
		webhookURL: cfg.Slack.WebhookURL,
		logger:     logger,
	}
}

// SendMessage posts the message to the configured webhook. Without a
// webhook URL the channel is disabled: a warning is logged and nil
// returned.
func (s *SlackSender) SendMessage(ctx context.Context, message string) error {
	if s.webhookURL == "" {
		s.logger.Warn().Msg("slack webhook is not configured, skipping slack alert")
		return nil
	}

	msg := &slack.WebhookMessage{Text: message}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to post slack webhook: %w", err)
	}

	s.logger.Info().Msg("alert sent to slack")
	return nil
}
