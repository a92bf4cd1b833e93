package tasks

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicekit-go/servicekit/config"
)

func newWorkerConfig() *config.Config {
	return &config.Config{
		Redis: config.RedisConfig{Address: "localhost:6379"},
		Worker: config.WorkerConfig{
			Concurrency:     4,
			Queues:          map[string]int{"critical": 6, "email": 3, "logging": 1},
			ResultRetention: 7200,
		},
	}
}

func TestNewWorkerServiceAppliesConfiguredRetention(t *testing.T) {
	log := zerolog.Nop()

	w := NewWorkerService(newWorkerConfig(), &log, nil, nil)
	require.NotNil(t, w)

	// The worker.result_retention override must reach the enqueue
	// path, not just the config struct.
	assert.Equal(t, 2*time.Hour, w.retention)
}

func TestNewWorkerServiceForwarderWiring(t *testing.T) {
	log := zerolog.Nop()

	t.Run("disabled without a logging service url", func(t *testing.T) {
		w := NewWorkerService(newWorkerConfig(), &log, nil, nil)
		assert.Nil(t, w.forwarder)
	})

	t.Run("enabled with a logging service url", func(t *testing.T) {
		cfg := newWorkerConfig()
		cfg.Worker.LoggingServiceURL = "http://logging.internal/records"

		w := NewWorkerService(cfg, &log, nil, nil)
		assert.NotNil(t, w.forwarder)
	})
}
