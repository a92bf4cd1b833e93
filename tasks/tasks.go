// Package tasks provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue: producers enqueue tasks through
// asynq.Client and a worker server consumes them. The kit ships three
// task types on three weighted queues:
//
//	email:send       -> "email"    outbound email delivery
//	logging:forward  -> "logging"  shipping log records to the central logging service
//	alert:dispatch   -> "critical" severity-routed alert fan-out
//
// Services enqueue through WorkerService.Client; the worker process
// (cmd/worker) runs the consuming server.
package tasks
