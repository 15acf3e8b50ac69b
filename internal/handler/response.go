package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SuccessResponse is the envelope of every successful response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the envelope of every failed response
type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// NewSuccess writes data in the success envelope
func NewSuccess(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, SuccessResponse{Success: true, Message: message, Data: data})
}

func newError(c echo.Context, status int, message string, details []string) error {
	if details == nil {
		details = []string{}
	}
	return c.JSON(status, ErrorResponse{Success: false, Message: message, Errors: details})
}

// NewValidationError creates a 400 response
func NewValidationError(c echo.Context, message string, details ...string) error {
	return newError(c, http.StatusBadRequest, message, details)
}

// NewNotFoundError creates a 404 response
func NewNotFoundError(c echo.Context, message string) error {
	return newError(c, http.StatusNotFound, message, nil)
}

// NewUnauthorizedError creates a 401 response
func NewUnauthorizedError(c echo.Context, message string) error {
	return newError(c, http.StatusUnauthorized, message, nil)
}

// NewConflictError creates a 409 response
func NewConflictError(c echo.Context, message string) error {
	return newError(c, http.StatusConflict, message, nil)
}

// NewServiceUnavailableError creates a 503 response
func NewServiceUnavailableError(c echo.Context, message string) error {
	return newError(c, http.StatusServiceUnavailable, message, nil)
}

// NewInternalError creates a 500 response
func NewInternalError(c echo.Context, message string) error {
	return newError(c, http.StatusInternalServerError, message, nil)
}

// errorDetail drops the taxonomy prefix ("invalid argument: ...") from a domain error
func errorDetail(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrInvalidArgument, domain.ErrNotFound, domain.ErrConflict, domain.ErrUnauthenticated} {
		if trimmed := strings.TrimPrefix(msg, sentinel.Error()+": "); trimmed != msg {
			return trimmed
		}
	}
	return msg
}

// respondError maps a service error onto the envelope by its taxonomy.
// Unclassified errors are logged and reported as a generic 500.
func respondError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return NewUnauthorizedError(c, errorDetail(err))
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, errorDetail(err))
	case errors.Is(err, domain.ErrInvalidArgument):
		return NewValidationError(c, "Validation failed", errorDetail(err))
	case errors.Is(err, domain.ErrConflict):
		return NewConflictError(c, errorDetail(err))
	case errors.Is(err, domain.ErrReceiptsUnavailable):
		return NewServiceUnavailableError(c, "Receipt uploads are disabled (storage not configured)")
	}

	log.Error().Err(err).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}

// HTTPErrorHandler renders framework errors (unknown routes, bind failures,
// panics recovered upstream) in the error envelope
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = newError(c, status, message, nil)
}
