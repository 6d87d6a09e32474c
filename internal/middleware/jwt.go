// Package middleware contains the Echo middleware shared by all routes:
// bearer authentication, the access guard, request logging and metrics,
// and Redis-backed rate limiting.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/utils"
)

// Context keys set by Authenticate.
const (
	principalKey = "principal"
	userIDKey    = "user_id"
)

// Authenticate returns an Echo middleware that resolves the caller from a
// Bearer access token. A request without an Authorization header passes
// through as anonymous; a malformed or invalid token is rejected with 401.
// Whether anonymous callers may proceed is decided later by Guard.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return next(c)
			}
			scheme, raw, ok := strings.Cut(auth, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authorization header must be 'Bearer <token>'"})
			}
			uid, admin, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(principalKey, model.Principal{UserID: uid, IsAdmin: admin})
			c.Set(userIDKey, strconv.FormatUint(uid, 10))
			return next(c)
		}
	}
}

// PrincipalFrom returns the authenticated caller, or nil for anonymous requests.
func PrincipalFrom(c echo.Context) *model.Principal {
	if p, ok := c.Get(principalKey).(model.Principal); ok {
		return &p
	}
	return nil
}

// SetPrincipal stores p on the context the way Authenticate does.
func SetPrincipal(c echo.Context, p model.Principal) {
	c.Set(principalKey, p)
	c.Set(userIDKey, strconv.FormatUint(p.UserID, 10))
}
