package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ErrorHandler renders every error as {"message": ...} JSON. Server-side
// failures are logged; client errors are the caller's problem and are not.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	if code >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", code).
			Msg("request failed")
	}

	if err := c.JSON(code, map[string]string{"message": msg}); err != nil {
		log.Error().Err(err).Msg("error response write failed")
	}
}
