// Package logger configures the application's logging, monitoring,
// and observability.
//
// It uses zerolog for structured logging and integrates with New Relic
// to instrument the codebase, forwarding logs, metrics, and traces.
// When no New Relic license key is configured every integration point
// degrades to a no-op.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/zerologWriter"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/servicekit-go/servicekit/config"
)

// LoggerService owns the New Relic application lifecycle.
//
// The wrapped application is nil when APM is not configured; callers
// must treat GetApplication() == nil as "agent disabled".
type LoggerService struct {
	app *newrelic.Application
}

// NewLoggerService initializes the New Relic agent from config.
//
// With an empty license key it returns a service with a nil
// application so the rest of the kit can stay nil-safe.
func NewLoggerService(cfg *config.Config) (*LoggerService, error) {
	obs := cfg.Observability
	if obs.NewRelic.LicenseKey == "" {
		return &LoggerService{}, nil
	}

	opts := []newrelic.ConfigOption{
		newrelic.ConfigAppName(obs.ServiceName),
		newrelic.ConfigLicense(obs.NewRelic.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(obs.NewRelic.AppLogForwardingEnabled),
		newrelic.ConfigDistributedTracerEnabled(obs.NewRelic.DistributedTracingEnabled),
	}
	if obs.NewRelic.DebugLogging {
		opts = append(opts, newrelic.ConfigDebugLogger(os.Stderr))
	}

	app, err := newrelic.NewApplication(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize new relic application: %w", err)
	}

	return &LoggerService{app: app}, nil
}

// GetApplication returns the New Relic application, or nil when APM is
// disabled.
func (s *LoggerService) GetApplication() *newrelic.Application {
	if s == nil {
		return nil
	}
	return s.app
}

// Shutdown flushes pending telemetry and stops the agent.
func (s *LoggerService) Shutdown(timeout time.Duration) {
	if s == nil || s.app == nil {
		return
	}
	s.app.Shutdown(timeout)
}

// New builds the application logger from observability config.
//
// Format "console" writes human-friendly output to stderr; "json"
// writes machine-parseable lines to stdout. When log forwarding is
// enabled and an agent exists, JSON output is routed through the New
// Relic zerolog writer so log lines carry linking metadata.
func New(cfg *config.Config, service *LoggerService) *zerolog.Logger {
	obs := cfg.Observability

	level, err := zerolog.ParseLevel(obs.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if obs.Logging.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	} else if app := service.GetApplication(); app != nil && obs.NewRelic.AppLogForwardingEnabled {
		w := zerologWriter.New(os.Stdout, app)
		out = &w
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", obs.ServiceName).
		Str("env", obs.Environment).
		Logger()

	return &logger
}

// WithTraceContext stamps trace.id and span.id fields onto a logger so
// log lines correlate with the given New Relic transaction.
func WithTraceContext(logger zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return logger
	}
	md := txn.GetTraceMetadata()
	builder := logger.With()
	if md.TraceID != "" {
		builder = builder.Str("trace.id", md.TraceID)
	}
	if md.SpanID != "" {
		builder = builder.Str("span.id", md.SpanID)
	}
	return builder.Logger()
}
