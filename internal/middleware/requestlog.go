package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/wanex63/kinopoisk/internal/logging"
	"github.com/wanex63/kinopoisk/internal/metrics"
)

// RequestLogger writes one structured access log line per request and
// records the HTTP metrics. Handler errors are rendered here (through
// the Echo error handler) so the logged status is the one sent.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			latency := time.Since(start)

			req, res := c.Request(), c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveHTTP(req.Method, route, res.Status, latency)

			var ev *zerolog.Event
			switch {
			case res.Status >= 500:
				ev = logging.Error().Err(err)
			case res.Status >= 400:
				ev = logging.Warn()
			default:
				ev = logging.Info()
			}
			ev.Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", route).
				Int("status", res.Status).
				Dur("latency", latency).
				Str("user_id", callerKey(c)).
				Str("remote_ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}
