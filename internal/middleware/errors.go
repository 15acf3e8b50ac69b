package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// errorBody mirrors the API's error envelope
type errorBody struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func unauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, errorBody{
		Success: false,
		Message: "Unauthorized",
		Errors:  []string{detail},
	})
}

func tooManyRequestsError(c echo.Context, detail string) error {
	return c.JSON(http.StatusTooManyRequests, errorBody{
		Success: false,
		Message: "Too many requests",
		Errors:  []string{detail},
	})
}
