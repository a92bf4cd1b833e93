package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/servicekit-go/servicekit/errs"
	"github.com/servicekit-go/servicekit/server"
)

// Claims is the JWT payload propagated between services.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// AuthMiddleware enforces JWT authentication on protected routes. It
// holds the app container so it can reach the configured secret and
// the shared logger.
type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// GenerateToken issues a signed HS256 token for the given identity,
// valid for the configured TTL. Services call this after their own
// credential check.
func (auth *AuthMiddleware) GenerateToken(userID, email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(auth.server.Config.Auth.TokenTTL) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    auth.server.Config.Primary.ServiceName,
		},
		UserID: userID,
		Email:  email,
		Role:   role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(auth.server.Config.Auth.SecretKey))
}

// RequireAuth returns a middleware enforcing a valid bearer token.
//
// Behavior:
//  1. The Authorization header must carry "Bearer <token>".
//  2. The token is verified as HS256 against the configured secret.
//  3. Expired tokens get a 401 "Token expired"; any other verification
//     failure gets a 401 "Invalid token".
//  4. On success the claims are stored in the Echo context
//     (user_id, user_email, user_role) for handlers downstream.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return errs.NewUnauthorizedError("Authorization header required", false)
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			return errs.NewUnauthorizedError("Invalid authorization header format", false)
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			// Restricting the algorithm prevents downgrade tricks
			// like alg=none or an RSA public key used as HMAC secret.
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(auth.server.Config.Auth.SecretKey), nil
		})

		if err != nil || !token.Valid {
			logger := GetLogger(c)

			if errors.Is(err, jwt.ErrTokenExpired) {
				logger.Warn().
					Str("function", "RequireAuth").
					Str("request_id", GetRequestID(c)).
					Dur("duration", time.Since(start)).
					Msg("rejected expired token")

				return errs.NewUnauthorizedError("Token expired", false)
			}

			logger.Warn().
				Err(err).
				Str("function", "RequireAuth").
				Str("request_id", GetRequestID(c)).
				Dur("duration", time.Since(start)).
				Msg("rejected invalid token")

			return errs.NewUnauthorizedError("Invalid token", false)
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, claims.Role)

		auth.server.Logger.Info().
			Str("function", "RequireAuth").
			Str("user_id", claims.UserID).
			Str("request_id", GetRequestID(c)).
			Dur("duration", time.Since(start)).
			Msg("user authenticated successfully")

		return next(c)
	}
}
