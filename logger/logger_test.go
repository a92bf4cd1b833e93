package logger_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicekit-go/servicekit/config"
	"github.com/servicekit-go/servicekit/logger"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Primary: config.Primary{ServiceName: "logger-test", Env: "local"},
	}
	cfg.Observability = config.DefaultObservabilityConfig()
	cfg.Observability.ServiceName = cfg.Primary.ServiceName
	cfg.Observability.Environment = cfg.Primary.Env
	return cfg
}

func TestNewLoggerServiceWithoutLicenseKey(t *testing.T) {
	svc, err := logger.NewLoggerService(testConfig())
	require.NoError(t, err)
	require.NotNil(t, svc)

	// No license key means no agent; callers must get nil back.
	assert.Nil(t, svc.GetApplication())

	// Shutdown on a disabled service must be a no-op.
	svc.Shutdown(time.Second)
}

func TestLoggerServiceNilSafety(t *testing.T) {
	var svc *logger.LoggerService

	assert.Nil(t, svc.GetApplication())
	svc.Shutdown(time.Second)
}

func TestNewAppliesConfiguredLevel(t *testing.T) {
	cfg := testConfig()
	cfg.Observability.Logging.Level = "warn"

	log := logger.New(cfg, &logger.LoggerService{})
	require.NotNil(t, log)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	cfg := testConfig()
	cfg.Observability.Logging.Level = "not-a-level"

	log := logger.New(cfg, &logger.LoggerService{})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestWithTraceContextNilTransaction(t *testing.T) {
	base := zerolog.Nop()

	// A nil transaction must return the logger unchanged rather than
	// panic.
	out := logger.WithTraceContext(base, nil)
	assert.Equal(t, base.GetLevel(), out.GetLevel())
}
