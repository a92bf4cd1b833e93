package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// handleEmailTask delivers an email through the injected mailer.
// Returning an error makes Asynq mark the task failed and schedule a
// retry.
func (w *WorkerService) handleEmailTask(ctx context.Context, t *asynq.Task) error {
	var p EmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal email payload: %w", err)
	}

	if w.mailer == nil {
		return fmt.Errorf("no mailer configured for email task")
	}

	w.logger.Info().
		Str("type", TaskEmailSend).
		Str("to", p.To).
		Msg("processing email task")

	if err := w.mailer.SendTo(ctx, p.To, p.Subject, p.Body); err != nil {
		w.logger.Error().
			Str("type", TaskEmailSend).
			Str("to", p.To).
			Err(err).
			Msg("failed to send email")
		return err
	}

	w.logger.Info().
		Str("type", TaskEmailSend).
		Str("to", p.To).
		Msg("email sent")

	return nil
}

// handleLogForwardTask ships a log record to the central logging
// service. With no logging service configured the task is dropped with
// a warning rather than retried forever.
func (w *WorkerService) handleLogForwardTask(ctx context.Context, t *asynq.Task) error {
	var record LogRecord
	if err := json.Unmarshal(t.Payload(), &record); err != nil {
		return fmt.Errorf("failed to unmarshal log record: %w", err)
	}

	if w.forwarder == nil {
		w.logger.Warn().
			Str("type", TaskLogForward).
			Msg("logging service is not configured, dropping log record")
		return nil
	}

	if err := w.forwarder.ForwardRecord(ctx, record); err != nil {
		w.logger.Error().
			Str("type", TaskLogForward).
			Str("service", record.Service).
			Err(err).
			Msg("failed to forward log record")
		return err
	}

	return nil
}

// handleAlertTask fans an alert out through the notification channels.
func (w *WorkerService) handleAlertTask(ctx context.Context, t *asynq.Task) error {
	var p AlertTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal alert payload: %w", err)
	}

	if w.notifier == nil {
		return fmt.Errorf("no notifier configured for alert task")
	}

	w.logger.Info().
		Str("type", TaskAlertDispatch).
		Str("severity", string(p.Severity)).
		Str("subject", p.Subject).
		Msg("processing alert task")

	if err := w.notifier.Send(ctx, p.Subject, p.Message, p.Severity); err != nil {
		w.logger.Error().
			Str("type", TaskAlertDispatch).
			Str("subject", p.Subject).
			Err(err).
			Msg("failed to dispatch alert")
		return err
	}

	return nil
}
