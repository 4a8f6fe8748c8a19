package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avolkhin/storefront/internal/token"
)

const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

// AnonymousID is what read-only routes see when no valid identity is
// attached. No product can ever be owned by user 0.
const AnonymousID uint = 0

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Require rejects requests without a valid bearer token.
func Require(tokens *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			setIdentity(c, claims)
			return next(c)
		}
	}
}

// Optional decodes an identity when one is present; an absent or invalid
// token degrades to the anonymous requester instead of failing.
func Optional(tokens *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := bearerToken(c); raw != "" {
				if claims, err := tokens.Parse(raw); err == nil {
					setIdentity(c, claims)
				}
			}
			return next(c)
		}
	}
}

func setIdentity(c echo.Context, claims *token.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
}

// RequesterID returns the authenticated user id, or AnonymousID.
func RequesterID(c echo.Context) uint {
	if v, ok := c.Get(ContextUserID).(uint); ok {
		return v
	}
	return AnonymousID
}
