package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/auth"
	"marketplace-backend/internal/repository"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextToken     = "access_token"
)

// Auth verifies the bearer token against the public key and the blacklist,
// then exposes the caller's identity on the echo context. Every failure mode
// returns the same 401.
func Auth(issuer *auth.Issuer, blacklist *auth.Blacklist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims, err := issuer.ParseAccess(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			revoked, err := blacklist.Contains(c.Request().Context(), claims.ID)
			if err != nil || revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextUserID, claims.Issuer)
			c.Set(ContextUserEmail, claims.Subject)
			c.Set(ContextToken, raw)
			return next(c)
		}
	}
}

// RequireRole gates a route group to the named roles. Runs after Auth.
func RequireRole(users repository.UserRepository, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(ContextUserID).(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
