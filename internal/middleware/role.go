package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wanex63/kinopoisk/internal/metrics"
)

// Access is the minimum caller level an operation requires.
type Access int

const (
	Public Access = iota
	Authenticated
	Admin
)

func (a Access) String() string {
	switch a {
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return "public"
	}
}

// Guard enforces access for the named operation. It must run after
// Authenticate. Anonymous callers on a protected operation get 401;
// authenticated non-admins on an admin operation get 403.
func Guard(operation string, access Access) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if access == Public {
				return next(c)
			}
			p := PrincipalFrom(c)
			if p == nil {
				metrics.RecordAuthz(operation, false)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication credentials were not provided"})
			}
			if access == Admin && !p.IsAdmin {
				metrics.RecordAuthz(operation, false)
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			metrics.RecordAuthz(operation, true)
			return next(c)
		}
	}
}
