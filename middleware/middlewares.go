package middleware

import (
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/servicekit-go/servicekit/server"
)

// Middlewares groups all middleware components used by a service's
// HTTP server, so shared dependencies are wired in exactly once and
// router setup passes a single object around.
type Middlewares struct {
	// Global holds middleware applied to the whole API: CORS, request
	// logging, recovery, secure headers, and the global error handler.
	Global *GlobalMiddlewares

	// Auth enforces JWT authentication and attaches user context.
	Auth *AuthMiddleware

	// Transaction wraps requests in a database transaction and
	// monitors its outcome.
	Transaction *TransactionMiddleware

	// ContextEnhancer enriches each request with a request-scoped
	// logger (request_id, method, path, ip, trace and user metadata).
	ContextEnhancer *ContextEnhancer

	// Tracing provides the New Relic middleware and helpers that add
	// custom attributes and notice errors on transactions.
	Tracing *TracingMiddleware
}

// NewMiddlewares constructs all middleware components from the
// application container. When New Relic is not configured the tracing
// middleware degrades into a no-op.
func NewMiddlewares(s *server.Server) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s),
		Transaction:     NewTransactionMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
	}
}
