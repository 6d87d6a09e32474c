package middleware

import "github.com/labstack/echo/v4"

// callerKey returns the authenticated user id as a string, or "anon".
// It is used for rate limit keys and log fields.
func callerKey(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}
