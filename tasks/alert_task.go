package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/servicekit-go/servicekit/notification"
)

// AlertTaskPayload is the JSON payload for TaskAlertDispatch.
type AlertTaskPayload struct {
	Subject  string                `json:"subject"`
	Message  string                `json:"message"`
	Severity notification.Severity `json:"severity"`
}

// NewAlertTask constructs a task that dispatches an alert through the
// notification channels without blocking the caller.
//
// Alerts ride the "critical" queue, the heaviest-weighted queue in the
// default worker config.
func NewAlertTask(subject, message string, severity notification.Severity, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(AlertTaskPayload{
		Subject:  subject,
		Message:  message,
		Severity: severity,
	})
	if err != nil {
		return nil, err
	}

	options := append([]asynq.Option{
		asynq.MaxRetry(3),
		asynq.Queue("critical"),
		asynq.Timeout(30 * time.Second),
		asynq.Retention(resultRetention),
	}, opts...)

	return asynq.NewTask(TaskAlertDispatch, payload, options...), nil
}
