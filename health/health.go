// Package health exposes the liveness endpoint load balancers and
// uptime monitors hit to verify the service and its dependencies.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/servicekit-go/servicekit/middleware"
	"github.com/servicekit-go/servicekit/server"
)

const checkTimeout = 5 * time.Second

// Handler serves the health endpoint. It reads the shared dependency
// handles (database pool, redis client, telemetry) from the app
// container.
type Handler struct {
	server *server.Server
}

// NewHandler constructs a health Handler.
func NewHandler(s *server.Server) *Handler {
	return &Handler{
		server: s,
	}
}

// CheckHealth reports overall service health plus per-dependency
// checks (database, redis) with response times. Returns 200 when all
// checks pass and 503 Service Unavailable otherwise. Failures are also
// recorded as New Relic custom events when the agent is enabled.
func (h *Handler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      make(map[string]interface{}),
	}

	checks := response["checks"].(map[string]interface{})
	isHealthy := true

	// Database connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	dbStart := time.Now()
	if err := h.server.DB.Ping(ctx); err != nil {
		checks["database"] = map[string]interface{}{
			"status":        "unhealthy",
			"response_time": time.Since(dbStart).String(),
			"error":         err.Error(),
		}
		isHealthy = false

		logger.Error().
			Err(err).
			Dur("response_time", time.Since(dbStart)).
			Msg("database health check failed")

		h.recordCheckError("database", "database_unhealthy", time.Since(dbStart), err)
	} else {
		checks["database"] = map[string]interface{}{
			"status":        "healthy",
			"response_time": time.Since(dbStart).String(),
		}

		logger.Info().
			Dur("response_time", time.Since(dbStart)).
			Msg("database health check passed")
	}

	// Redis connectivity. Redis backs the task queue, so its failure
	// counts against overall health.
	if h.server.Redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		redisStart := time.Now()
		if err := h.server.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = map[string]interface{}{
				"status":        "unhealthy",
				"response_time": time.Since(redisStart).String(),
				"error":         err.Error(),
			}
			isHealthy = false

			logger.Error().
				Err(err).
				Dur("response_time", time.Since(redisStart)).
				Msg("redis health check failed")

			h.recordCheckError("redis", "redis_unhealthy", time.Since(redisStart), err)
		} else {
			checks["redis"] = map[string]interface{}{
				"status":        "healthy",
				"response_time": time.Since(redisStart).String(),
			}

			logger.Info().
				Dur("response_time", time.Since(redisStart)).
				Msg("redis health check passed")
		}
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordCheckError("overall", "overall_unhealthy", time.Since(start), nil)

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Info().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		h.recordCheckError("response", "json_response_error", 0, err)
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// recordCheckError emits a HealthCheckError custom event when the New
// Relic agent is running.
func (h *Handler) recordCheckError(checkType, errorType string, elapsed time.Duration, err error) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}

	attrs := map[string]interface{}{
		"check_type":       checkType,
		"operation":        "health_check",
		"error_type":       errorType,
		"response_time_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		attrs["error_message"] = err.Error()
	}

	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", attrs)
}
