package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/servicekit-go/servicekit/config"
)

// WebhookSender POSTs alert payloads as JSON to a generic webhook so
// external monitoring and incident systems can ingest every alert.
type WebhookSender struct {
	url    string
	client *http.Client
	logger *zerolog.Logger
}

// NewWebhookSender creates a webhook sender from config with a tuned
// HTTP client: alerts must not hang a caller on a slow endpoint.
func NewWebhookSender(cfg *config.Config, logger *zerolog.Logger) *WebhookSender {
	return &WebhookSender{
		url: cfg.Webhook.URL,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		logger: logger,
	}
}

// SendPayload delivers the alert payload to the configured URL. An
// empty URL disables the channel with a logged warning.
func (w *WebhookSender) SendPayload(ctx context.Context, payload AlertPayload) error {
	if w.url == "" {
		w.logger.Warn().Msg("webhook is not configured, skipping webhook alert")
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	w.logger.Info().Msg("alert sent via webhook")
	return nil
}
