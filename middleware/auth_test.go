package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicekit-go/servicekit/config"
	"github.com/servicekit-go/servicekit/errs"
	"github.com/servicekit-go/servicekit/middleware"
	"github.com/servicekit-go/servicekit/server"
)

const testSecret = "auth-test-secret"

func newAuthMiddleware(t *testing.T) *middleware.AuthMiddleware {
	t.Helper()

	log := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{
			Primary: config.Primary{ServiceName: "auth-test", Env: "local"},
			Auth:    config.AuthConfig{SecretKey: testSecret, TokenTTL: 1},
		},
		Logger: &log,
	}
	return middleware.NewAuthMiddleware(s)
}

// runProtected sends a request with the given Authorization header
// through RequireAuth and returns the context plus the handler error.
func runProtected(t *testing.T, auth *middleware.AuthMiddleware, header string) (echo.Context, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := auth.RequireAuth(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	return c, handler(c)
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	auth := newAuthMiddleware(t)

	token, err := auth.GenerateToken("user-42", "user@example.com", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	c, err := runProtected(t, auth, "Bearer "+token)
	require.NoError(t, err)

	assert.Equal(t, "user-42", middleware.GetUserID(c))
	assert.Equal(t, "user@example.com", c.Get(middleware.UserEmailKey))
	assert.Equal(t, "admin", c.Get(middleware.UserRoleKey))
}

func TestRequireAuthMissingHeader(t *testing.T) {
	auth := newAuthMiddleware(t)

	_, err := runProtected(t, auth, "")

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "Authorization header required", httpErr.Message)
}

func TestRequireAuthBadHeaderFormat(t *testing.T) {
	auth := newAuthMiddleware(t)

	_, err := runProtected(t, auth, "Basic dXNlcjpwYXNz")

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "Invalid authorization header format", httpErr.Message)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	auth := newAuthMiddleware(t)

	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
		UserID: "user-42",
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = runProtected(t, auth, "Bearer "+expired)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "Token expired", httpErr.Message)
}

func TestRequireAuthWrongSecret(t *testing.T) {
	auth := newAuthMiddleware(t)

	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "user-42",
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = runProtected(t, auth, "Bearer "+forged)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "Invalid token", httpErr.Message)
}

func TestRequireAuthGarbageToken(t *testing.T) {
	auth := newAuthMiddleware(t)

	_, err := runProtected(t, auth, "Bearer not.a.jwt")

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "Invalid token", httpErr.Message)
	assert.False(t, errors.Is(err, jwt.ErrTokenExpired))
}
