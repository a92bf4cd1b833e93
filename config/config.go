// Package config loads the shared configuration used by every service
// that imports servicekit.
//
// It reads environment variables (optionally from a `.env` file), maps
// them into structured Go types, and validates that required values are
// present so consuming services fail fast on bad or missing config.
//
// Env vars use the SVC_ prefix and dot-delimited nesting, e.g.
// SVC_DATABASE.HOST maps to Config.Database.Host.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file into the process env,
	// if one exists, before any env var is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// envPrefix is stripped from env var names before they are mapped
// into koanf keys.
const envPrefix = "SVC_"

// Config is the root configuration object shared by all services.
//
// Observability is a pointer because it is optional; defaults are
// injected at load time when it is absent.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Email         EmailConfig          `koanf:"email"`
	Slack         SlackConfig          `koanf:"slack"`
	Twilio        TwilioConfig         `koanf:"twilio"`
	Webhook       WebhookConfig        `koanf:"webhook"`
	Worker        WorkerConfig         `koanf:"worker"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// ServiceName tags logs, traces, and alerts emitted through the kit.
type Primary struct {
	Env         string `koanf:"env" validate:"required"`
	ServiceName string `koanf:"service_name" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details. Address is "host:port".
// Redis doubles as the broker and result backend for background tasks.
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores JWT authentication settings.
//
// SecretKey signs and verifies HS256 tokens. TokenTTL is the lifetime,
// in hours, of tokens issued through middleware.GenerateToken.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
	TokenTTL  int    `koanf:"token_ttl"`
}

// EmailConfig selects and configures the email delivery provider.
//
// Provider is either "smtp" or "resend". The SMTP block mirrors a
// classic STARTTLS + auth submission setup; AdminEmail is the default
// recipient for alert mail.
type EmailConfig struct {
	Provider     string `koanf:"provider" validate:"omitempty,oneof=smtp resend"`
	FromName     string `koanf:"from_name"`
	FromAddress  string `koanf:"from_address"`
	AdminEmail   string `koanf:"admin_email"`
	SMTPServer   string `koanf:"smtp_server"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	ResendAPIKey string `koanf:"resend_api_key"`
}

// SlackConfig holds the Slack incoming-webhook URL for alert delivery.
// An empty URL disables the channel.
type SlackConfig struct {
	WebhookURL string `koanf:"webhook_url"`
}

// TwilioConfig holds Twilio credentials for SMS alert delivery.
// Empty credentials disable the channel.
type TwilioConfig struct {
	AccountSID  string `koanf:"account_sid"`
	AuthToken   string `koanf:"auth_token"`
	FromNumber  string `koanf:"from_number"`
	AlertNumber string `koanf:"alert_number"`
}

// WebhookConfig holds the generic webhook URL that receives every alert
// regardless of severity. An empty URL disables the channel.
type WebhookConfig struct {
	URL string `koanf:"url"`
}

// WorkerConfig tunes the background task worker.
//
// Queue weights distribute worker slots across queues by ratio. The
// zero value is replaced with defaults in loadWorkerDefaults.
type WorkerConfig struct {
	Concurrency     int            `koanf:"concurrency"`
	Queues          map[string]int `koanf:"queues"`
	ResultRetention int            `koanf:"result_retention"` // seconds

	// DashboardPort is where the worker process serves the queue
	// monitoring dashboard.
	DashboardPort string `koanf:"dashboard_port"`

	// LoggingServiceURL receives forwarded log records from the
	// logging queue. Empty disables the log-forwarding handler.
	LoggingServiceURL string `koanf:"logging_service_url"`
}

// Load reads, decodes, and validates the full configuration.
//
// It logs fatally on malformed or incomplete config: a service with
// broken config should never reach its listen loop.
func Load() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")

	// Only env vars carrying the SVC_ prefix are read; the prefix is
	// stripped and the remainder lowercased to form the koanf key.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load env variables")
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal config")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		logger.Fatal().Err(err).Msg("config validation failed")
	}

	cfg.loadWorkerDefaults()

	if cfg.Observability == nil {
		cfg.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always come from the primary block
	// so telemetry naming stays consistent across services.
	cfg.Observability.ServiceName = cfg.Primary.ServiceName
	cfg.Observability.Environment = cfg.Primary.Env

	if err := cfg.Observability.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	return cfg, nil
}

// loadWorkerDefaults fills in worker settings left unset by the environment.
//
// The queue split mirrors the task routing this kit ships with: alert
// dispatch on "critical", outbound mail on "email", log forwarding on
// "logging".
func (c *Config) loadWorkerDefaults() {
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 10
	}
	if len(c.Worker.Queues) == 0 {
		c.Worker.Queues = map[string]int{
			"critical": 6,
			"email":    3,
			"logging":  1,
		}
	}
	if c.Worker.ResultRetention <= 0 {
		c.Worker.ResultRetention = 3600
	}
	if c.Worker.DashboardPort == "" {
		c.Worker.DashboardPort = "8181"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24
	}
}
