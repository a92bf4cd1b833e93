package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicekit-go/servicekit/middleware"
	"github.com/servicekit-go/servicekit/validation"
)

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RequestID())

	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = middleware.GetRequestID(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.NotEmpty(t, seen)
	assert.True(t, validation.IsValidUUID(seen))
	assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRequestIDReusesIncomingHeader(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RequestID())

	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = middleware.GetRequestID(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "upstream-id-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id-123", seen)
	assert.Equal(t, "upstream-id-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Equal(t, "", middleware.GetRequestID(c))
}
