package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// RequestIDHeader is the HTTP header carrying the correlation ID.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the Echo context key the ID is stored under.
	RequestIDKey = "request_id"
)

// RequestID returns a middleware ensuring each request has a request
// ID: an incoming X-Request-ID is reused, otherwise a UUID is
// generated. The ID is stored in the Echo context and echoed back on
// the response header so clients and proxies can correlate.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			c.Set(RequestIDKey, requestID)
			c.Response().Header().Set(RequestIDHeader, requestID)

			return next(c)
		}
	}
}

// GetRequestID retrieves the request ID from the Echo context, or ""
// when the RequestID middleware has not run.
func GetRequestID(c echo.Context) string {
	if requestID, ok := c.Get(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
