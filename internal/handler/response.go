package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/service"
)

// envelope is the body of every JSON response.  Data is omitted on
// errors.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{StatusCode: status, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{StatusCode: status, Message: message})
}

// statusOf maps a service error kind to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError turns err into an error envelope.  Internal failures are
// logged and hidden behind a generic message.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	status := statusOf(err)
	msg := service.Message(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.Error(err),
			zap.Int("status", status),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		if status == http.StatusInternalServerError || msg == "" {
			msg = http.StatusText(status)
		}
	}
	return fail(c, status, msg)
}
