package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
)

// LogRecord is a structured log entry shipped to the central logging
// service through the "logging" queue.
type LogRecord struct {
	Service   string            `json:"service"`
	Level     string            `json:"level"`
	Event     string            `json:"event"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// NewLogForwardTask constructs a task that forwards a log record.
//
// Log forwarding is best-effort telemetry: it rides the low-weight
// "logging" queue and gives up after two retries.
func NewLogForwardTask(record LogRecord, opts ...asynq.Option) (*asynq.Task, error) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	options := append([]asynq.Option{
		asynq.MaxRetry(2),
		asynq.Queue("logging"),
		asynq.Timeout(15 * time.Second),
		asynq.Retention(resultRetention),
	}, opts...)

	return asynq.NewTask(TaskLogForward, payload, options...), nil
}

// recordForwarder ships a log record to the logging service.
type recordForwarder interface {
	ForwardRecord(ctx context.Context, record LogRecord) error
}

// httpRecordForwarder POSTs records as JSON to the logging service URL.
type httpRecordForwarder struct {
	url    string
	client *http.Client
}

func newHTTPRecordForwarder(url string) *httpRecordForwarder {
	return &httpRecordForwarder{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (f *httpRecordForwarder) ForwardRecord(ctx context.Context, record LogRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal log record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build logging service request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to forward log record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logging service returned status %d", resp.StatusCode)
	}

	return nil
}
