package middleware

import (
	"net/http"
	"strings"

	"canx-backend/internal/auth"

	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// AuthMiddleware resolves the bearer token into an identity stored on the context.
func AuthMiddleware(tokens auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			id, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := Identity(c)
			if !ok || !id.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}
			return next(c)
		}
	}
}

// Identity returns the caller set by AuthMiddleware.
func Identity(c echo.Context) (*auth.Identity, bool) {
	id, ok := c.Get(identityKey).(*auth.Identity)
	return id, ok && id != nil
}

// SetIdentity is used by tests that bypass token parsing.
func SetIdentity(c echo.Context, id *auth.Identity) {
	c.Set(identityKey, id)
}
