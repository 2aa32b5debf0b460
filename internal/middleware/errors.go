package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"canx-backend/internal/apperr"
	"canx-backend/internal/dto"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrOverpayment),
		errors.Is(err, apperr.ErrCreditLimitExceeded):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrCustomerNotApproved),
		errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error as a dto.Response. Internal errors are
// logged and their text is not leaked to the client.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := StatusFor(err)
		message := err.Error()

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			message = fmt.Sprint(he.Message)
		}
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
			message = http.StatusText(status)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, dto.Response{Success: false, Message: message})
		}
		if werr != nil {
			log.Error().Err(werr).Msg("write error response")
		}
	}
}
