// Command worker runs the background task consumer: it processes the
// email, logging, and alert queues and serves the asynqmon dashboard
// for queue inspection.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/rs/zerolog"

	"github.com/servicekit-go/servicekit/config"
	"github.com/servicekit-go/servicekit/logger"
	"github.com/servicekit-go/servicekit/notification"
	"github.com/servicekit-go/servicekit/tasks"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Bootstrap logger for failures before the real logger exists.
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	loggerService, err := logger.NewLoggerService(cfg)
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to initialize telemetry agent")
	}

	log := logger.New(cfg, loggerService)

	mailer := notification.NewMailer(cfg, log)
	notifier := notification.NewNotifier(cfg, log)
	notifier.Email = mailer

	worker := tasks.NewWorkerService(cfg, log, mailer, notifier)
	if err := worker.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start worker")
	}

	log.Info().
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("worker started")

	// Queue dashboard, the operational view into pending/active/failed
	// tasks. Served on its own port so it can be firewalled separately
	// from the service API.
	mon := asynqmon.New(asynqmon.Options{
		RootPath:     "/monitoring",
		RedisConnOpt: asynq.RedisClientOpt{Addr: cfg.Redis.Address},
	})

	mux := http.NewServeMux()
	mux.Handle(mon.RootPath()+"/", mon)

	dashboard := &http.Server{
		Addr:    ":" + cfg.Worker.DashboardPort,
		Handler: mux,
	}

	go func() {
		log.Info().
			Str("port", cfg.Worker.DashboardPort).
			Msg("starting task dashboard")

		if err := dashboard.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("task dashboard stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := dashboard.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown task dashboard")
	}

	worker.Stop()
	loggerService.Shutdown(shutdownTimeout)

	log.Info().Msg("worker stopped")
}
