package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wanex63/kinopoisk/internal/apperror"
	"github.com/wanex63/kinopoisk/internal/logging"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorHandler is the Echo HTTPErrorHandler. It renders apperror and
// echo.HTTPError values as {"error": ...}; anything else becomes a 500
// whose cause is logged but not exposed.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errorBody{Error: "internal server error"}

	var ae *apperror.Error
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ae):
		status = ae.HTTPStatus()
		if status < 500 {
			body = errorBody{Error: ae.Message, Fields: ae.Fields}
		}
	case errors.As(err, &he):
		status = he.Code
		if status < 500 {
			body.Error = httpErrorMessage(he)
		}
	}

	if status >= 500 {
		logging.Error().Err(err).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logging.Warn().Err(err).Msg("write error response")
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	if s, ok := he.Message.(string); ok {
		return s
	}
	if he.Message == nil {
		return http.StatusText(he.Code)
	}
	return fmt.Sprint(he.Message)
}
