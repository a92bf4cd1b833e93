package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicekit-go/servicekit/config"
)

// setRequiredEnv populates the minimum environment a service needs to
// boot. Individual tests override or extend it.
func setRequiredEnv(t *testing.T) {
	t.Helper()

	env := map[string]string{
		"SVC_PRIMARY.ENV":                 "local",
		"SVC_PRIMARY.SERVICE_NAME":        "orders-api",
		"SVC_SERVER.PORT":                 "8080",
		"SVC_SERVER.READ_TIMEOUT":         "10",
		"SVC_SERVER.WRITE_TIMEOUT":        "10",
		"SVC_SERVER.IDLE_TIMEOUT":         "60",
		"SVC_DATABASE.HOST":               "localhost",
		"SVC_DATABASE.PORT":               "5432",
		"SVC_DATABASE.USER":               "postgres",
		"SVC_DATABASE.PASSWORD":           "postgres",
		"SVC_DATABASE.NAME":               "orders",
		"SVC_DATABASE.SSL_MODE":           "disable",
		"SVC_DATABASE.MAX_OPEN_CONNS":     "10",
		"SVC_DATABASE.MAX_IDLE_CONNS":     "5",
		"SVC_DATABASE.CONN_MAX_LIFETIME":  "300",
		"SVC_DATABASE.CONN_MAX_IDLE_TIME": "60",
		"SVC_REDIS.ADDRESS":               "localhost:6379",
		"SVC_AUTH.SECRET_KEY":             "test-secret",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Primary.Env)
	assert.Equal(t, "orders-api", cfg.Primary.ServiceName)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "test-secret", cfg.Auth.SecretKey)
}

func TestLoadWorkerDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Worker.Concurrency)
	assert.Equal(t, map[string]int{
		"critical": 6,
		"email":    3,
		"logging":  1,
	}, cfg.Worker.Queues)
	assert.Equal(t, 3600, cfg.Worker.ResultRetention)
	assert.Equal(t, "8181", cfg.Worker.DashboardPort)
	assert.Equal(t, 24, cfg.Auth.TokenTTL)
}

func TestLoadWorkerOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SVC_WORKER.CONCURRENCY", "4")
	t.Setenv("SVC_AUTH.TOKEN_TTL", "1")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 1, cfg.Auth.TokenTTL)
}

func TestLoadObservabilityDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, "orders-api", cfg.Observability.ServiceName)
	assert.Equal(t, "local", cfg.Observability.Environment)
	assert.False(t, cfg.Observability.IsProduction())
}

func TestLoadEmailProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SVC_EMAIL.PROVIDER", "resend")
	t.Setenv("SVC_EMAIL.RESEND_API_KEY", "re_test")
	t.Setenv("SVC_EMAIL.ADMIN_EMAIL", "ops@example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "resend", cfg.Email.Provider)
	assert.Equal(t, "re_test", cfg.Email.ResendAPIKey)
	assert.Equal(t, "ops@example.com", cfg.Email.AdminEmail)
}
