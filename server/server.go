// Package server defines the core Server struct that composes the
// kit's shared dependencies for a consuming service.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database pool
//   - redis client
//   - background worker service (asynq)
//   - notification channels
//   - http.Server
//
// Services construct a Server at startup, register their routes on an
// Echo instance, and hand it to SetupHTTPServer/Start.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/servicekit-go/servicekit/config"
	"github.com/servicekit-go/servicekit/database"
	loggerPkg "github.com/servicekit-go/servicekit/logger"
	"github.com/servicekit-go/servicekit/notification"
	"github.com/servicekit-go/servicekit/tasks"
)

// Server is the application container holding shared resources. It is
// not the HTTP server itself; that is configured in SetupHTTPServer
// and run by Start.
type Server struct {
	Config *config.Config
	Logger *zerolog.Logger

	// LoggerService holds the New Relic application instance; the
	// wrapped app is nil when APM is disabled.
	LoggerService *loggerPkg.LoggerService

	DB    *database.Database
	Redis *redis.Client

	// Notifier fans alerts out to the configured channels; Mailer is
	// the email provider behind it, also used by the email task.
	Notifier *notification.Notifier
	Mailer   notification.Mailer

	// Worker enqueues background tasks. Its consuming server is only
	// started by processes that call Worker.Start (cmd/worker).
	Worker *tasks.WorkerService

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// The database is pinged during construction so startup fails fast
// when it is unreachable. Redis connection failure does not block
// startup: alerting and task enqueueing degrade, the service does not.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	// Instrument Redis commands when APM is enabled.
	if loggerService != nil && loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("failed to connect to redis, continuing without redis")
	}

	mailer := notification.NewMailer(cfg, logger)
	notifier := notification.NewNotifier(cfg, logger)
	notifier.Email = mailer

	worker := tasks.NewWorkerService(cfg, logger, mailer, notifier)

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Notifier:      notifier,
		Mailer:        mailer,
		Worker:        worker,
	}, nil
}

// SetupHTTPServer configures the internal net/http server around the
// given handler (typically an *echo.Echo). Timeout values from config
// are interpreted as seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops or
// errors; call Shutdown from a signal handler for a graceful stop.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and its dependencies:
// in-flight HTTP requests finish until ctx expires, then the database
// pool, redis client, and worker are released.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	if err := s.Redis.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	if s.Worker != nil {
		s.Worker.Stop()
	}

	return nil
}
