package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskEmailSend is the task type for outbound email delivery.
	TaskEmailSend = "email:send"

	// TaskLogForward is the task type for shipping a log record to
	// the central logging service.
	TaskLogForward = "logging:forward"

	// TaskAlertDispatch is the task type for asynchronous alert
	// fan-out through the notification channels.
	TaskAlertDispatch = "alert:dispatch"
)

// resultRetention is the fallback result expiry applied when a task is
// constructed directly. The WorkerService enqueue helpers override it
// with the configured worker.result_retention value.
const resultRetention = time.Hour

// EmailPayload is the JSON payload for TaskEmailSend.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewEmailTask constructs a task that delivers an email through the
// configured mailer.
//
// Defaults: queue "email", three retries, 30s handler timeout, result
// retained for an hour. Extra options override the defaults.
func NewEmailTask(to, subject, body string, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailPayload{
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return nil, err
	}

	options := append([]asynq.Option{
		asynq.MaxRetry(3),
		asynq.Queue("email"),
		asynq.Timeout(30 * time.Second),
		asynq.Retention(resultRetention),
	}, opts...)

	return asynq.NewTask(TaskEmailSend, payload, options...), nil
}
