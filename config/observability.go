package config

import (
	"fmt"
	"time"
)

// ObservabilityConfig groups configuration related to telemetry and
// runtime visibility: logging, New Relic APM, and dependency health
// checks. It is optional at the root level; DefaultObservabilityConfig
// is injected when the block is absent.
type ObservabilityConfig struct {
	// ServiceName identifies the service in logs, traces, and alerts.
	// Overwritten from Primary.ServiceName at load time.
	ServiceName string `koanf:"service_name" validate:"required"`

	// Environment labels telemetry by environment (production,
	// staging, local, ...). Overwritten from Primary.Env at load time.
	Environment string `koanf:"environment" validate:"required"`

	Logging      LoggingConfig      `koanf:"logging" validate:"required"`
	NewRelic     NewRelicConfig     `koanf:"new_relic"`
	HealthChecks HealthChecksConfig `koanf:"health_checks"`
}

// LoggingConfig holds application logging configuration.
type LoggingConfig struct {
	// Level is the verbosity threshold (debug/info/warn/error).
	Level string `koanf:"level" validate:"required"`

	// Format selects the log output format: "json" or "console".
	Format string `koanf:"format" validate:"required"`

	// SlowQueryThreshold flags database queries slower than this
	// duration. Config values must be parseable durations ("250ms").
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`
}

// NewRelicConfig holds New Relic APM settings. An empty LicenseKey
// means "not configured"; the kit then runs without an agent.
type NewRelicConfig struct {
	LicenseKey                string `koanf:"license_key"`
	AppLogForwardingEnabled   bool   `koanf:"app_log_forwarding_enabled"`
	DistributedTracingEnabled bool   `koanf:"distributed_tracing_enabled"`
	DebugLogging              bool   `koanf:"debug_logging"`
}

// HealthChecksConfig controls periodic checks for dependencies.
type HealthChecksConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval" validate:"omitempty,min=1s"`
	Timeout  time.Duration `koanf:"timeout" validate:"omitempty,min=1s"`
	Checks   []string      `koanf:"checks"`
}

// DefaultObservabilityConfig provides defaults suitable for local
// development that do not break production.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		ServiceName: "servicekit",
		Environment: "development",
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "json",
			SlowQueryThreshold: 100 * time.Millisecond,
		},
		NewRelic: NewRelicConfig{
			LicenseKey:                "",
			AppLogForwardingEnabled:   true,
			DistributedTracingEnabled: true,
			DebugLogging:              false,
		},
		HealthChecks: HealthChecksConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
			Checks:   []string{"database", "redis"},
		},
	}
}

// Validate applies rules that go beyond struct tags: enum membership
// and cross-field constraints.
func (c *ObservabilityConfig) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be one of: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging format: %s (must be json or console)", c.Logging.Format)
	}

	if c.Logging.SlowQueryThreshold < 0 {
		return fmt.Errorf("logging slow_query_threshold must be non-negative")
	}

	return nil
}

// GetLogLevel returns the effective log level, defaulting by
// environment when no level is configured.
func (c *ObservabilityConfig) GetLogLevel() string {
	if c.Logging.Level == "" {
		if c.Environment == "production" {
			return "info"
		}
		return "debug"
	}
	return c.Logging.Level
}

// IsProduction reports whether the service runs in production mode.
func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}
