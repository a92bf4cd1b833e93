package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/servicekit-go/servicekit/logger"
	"github.com/servicekit-go/servicekit/server"
)

const (
	// UserIDKey, UserEmailKey, and UserRoleKey are the canonical Echo
	// context keys for the authenticated user's identity, set by the
	// auth middleware.
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"

	// LoggerKey stores the request-scoped logger.
	LoggerKey = "logger"
)

// ctxKey is the private type for values stored in the Go request
// context, so keys cannot collide across packages.
type ctxKey string

const loggerCtxKey ctxKey = "servicekit.logger"

// ContextEnhancer enriches every request with a request-scoped logger
// carrying request_id, method, path, ip, trace ids (when a New Relic
// transaction exists), and the user identity once auth has run. The
// logger is stored in both the Echo context and the Go request
// context, so repository code that only sees a context.Context can
// still log with full correlation.
type ContextEnhancer struct {
	server *server.Server
}

// NewContextEnhancer creates a ContextEnhancer from the app container.
func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext returns the Echo middleware. RequestID should run
// before it; Auth may run before or after, user fields are simply
// absent when it has not.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := GetRequestID(c)

			contextLogger := ce.server.Logger.With().
				Str("request_id", requestID).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()

			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			if userID := GetUserID(c); userID != "" {
				contextLogger = contextLogger.With().Str("user_id", userID).Logger()
			}

			c.Set(LoggerKey, &contextLogger)

			ctx := context.WithValue(c.Request().Context(), loggerCtxKey, &contextLogger)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetUserID reads the authenticated user ID from the Echo context, or
// "" when the auth middleware has not run.
func GetUserID(c echo.Context) string {
	if userID, ok := c.Get(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetLogger retrieves the request-scoped logger from the Echo context.
// A no-op logger is returned when EnhanceContext has not run, so
// callers never hit a nil pointer.
func GetLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return logger
	}

	logger := zerolog.Nop()
	return &logger
}

// LoggerFromContext retrieves the request-scoped logger from a Go
// context, for code below the HTTP layer.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerCtxKey).(*zerolog.Logger); ok {
		return logger
	}

	logger := zerolog.Nop()
	return &logger
}
