package tasks

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/servicekit-go/servicekit/config"
	"github.com/servicekit-go/servicekit/notification"
)

// AlertDispatcher routes an alert to its notification channels. It is
// satisfied by *notification.Notifier.
type AlertDispatcher interface {
	Send(ctx context.Context, subject, message string, severity notification.Severity) error
}

// WorkerService holds the Asynq client (enqueue) and server (consume)
// plus the dependencies task handlers need. Handler dependencies are
// injected fields so a service that only enqueues can pass nil for
// them and never start the server.
type WorkerService struct {
	// Client enqueues tasks into Redis.
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger

	retention time.Duration

	mailer    notification.Mailer
	notifier  AlertDispatcher
	forwarder recordForwarder
}

// NewWorkerService creates a WorkerService backed by the Redis
// instance from cfg.
//
// Concurrency and queue weights come from the worker config. The
// default split gives alert dispatch the largest share:
//
//	critical: 6
//	email:    3
//	logging:  1
func NewWorkerService(cfg *config.Config, logger *zerolog.Logger, mailer notification.Mailer, notifier AlertDispatcher) *WorkerService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues:      cfg.Worker.Queues,
		},
	)

	w := &WorkerService{
		Client:    client,
		server:    server,
		logger:    logger,
		retention: time.Duration(cfg.Worker.ResultRetention) * time.Second,
		mailer:    mailer,
		notifier:  notifier,
	}
	if cfg.Worker.LoggingServiceURL != "" {
		w.forwarder = newHTTPRecordForwarder(cfg.Worker.LoggingServiceURL)
	}
	return w
}

// EnqueueEmail enqueues an email delivery task, applying the worker
// config's result retention.
func (w *WorkerService) EnqueueEmail(ctx context.Context, to, subject, body string) (*asynq.TaskInfo, error) {
	task, err := NewEmailTask(to, subject, body, asynq.Retention(w.retention))
	if err != nil {
		return nil, err
	}
	return w.Client.EnqueueContext(ctx, task)
}

// EnqueueAlert enqueues an asynchronous alert dispatch, applying the
// worker config's result retention.
func (w *WorkerService) EnqueueAlert(ctx context.Context, subject, message string, severity notification.Severity) (*asynq.TaskInfo, error) {
	task, err := NewAlertTask(subject, message, severity, asynq.Retention(w.retention))
	if err != nil {
		return nil, err
	}
	return w.Client.EnqueueContext(ctx, task)
}

// EnqueueLogRecord enqueues a log record for forwarding, applying the
// worker config's result retention.
func (w *WorkerService) EnqueueLogRecord(ctx context.Context, record LogRecord) (*asynq.TaskInfo, error) {
	task, err := NewLogForwardTask(record, asynq.Retention(w.retention))
	if err != nil {
		return nil, err
	}
	return w.Client.EnqueueContext(ctx, task)
}

// Start registers the task handlers and starts the worker server.
// asynq.Server.Start is non-blocking; workers run until Stop.
func (w *WorkerService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskEmailSend, w.handleEmailTask)
	mux.HandleFunc(TaskLogForward, w.handleLogForwardTask)
	mux.HandleFunc(TaskAlertDispatch, w.handleAlertTask)

	w.logger.Info().Msg("starting background job server")

	if err := w.server.Start(mux); err != nil {
		return err
	}

	return nil
}

// Stop gracefully stops the worker server, waiting for in-flight
// tasks, and closes the enqueue client.
func (w *WorkerService) Stop() {
	w.logger.Info().Msg("stopping background job server")
	w.server.Shutdown()
	w.Client.Close()
}
