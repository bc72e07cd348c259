package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// notFound is the fallback for any request that does not resolve to a resource.
func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]string{
		"error": "Requested resource " + c.Request().RequestURI + " does not exist",
	})
}

// errorHandler renders unmatched routes with the not-found fallback and everything else
// as an error envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			err = notFound(c)
		default:
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok {
				msg = s
			}
			err = c.JSON(he.Code, map[string]string{"error": msg})
		}
	} else {
		logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("Unhandled error")
		err = c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if err != nil {
		logger.Error().Err(err).Msg("Error writing error response")
	}
}
