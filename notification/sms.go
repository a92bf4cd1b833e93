package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/servicekit-go/servicekit/config"
)

// SMSSender delivers alert SMS messages through the Twilio REST API.
type SMSSender struct {
	client      *twilio.RestClient
	fromNumber  string
	alertNumber string
	logger      *zerolog.Logger
}

// NewSMSSender creates a Twilio SMS sender from config. The client is
// only constructed when credentials are present.
func NewSMSSender(cfg *config.Config, logger *zerolog.Logger) *SMSSender {
	sender := &SMSSender{
		fromNumber:  cfg.Twilio.FromNumber,
		alertNumber: cfg.Twilio.AlertNumber,
		logger:      logger,
	}

	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		sender.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.Twilio.AccountSID,
			Password: cfg.Twilio.AuthToken,
		})
	}

	return sender
}

// SendMessage sends the message as an SMS to the alert number. Missing
// Twilio credentials disable the channel with a logged warning.
func (s *SMSSender) SendMessage(ctx context.Context, message string) error {
	if s.client == nil {
		s.logger.Warn().Msg("twilio is not configured, skipping sms alert")
		return nil
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(s.alertNumber)
	params.SetFrom(s.fromNumber)
	params.SetBody(message)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send sms via twilio: %w", err)
	}

	s.logger.Info().Str("to", s.alertNumber).Msg("alert sent via sms")
	return nil
}
