package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/huynhtran/minimart/internal/service"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, code int, message string) error {
	return c.JSON(code, Response{Status: "error", Message: message})
}

// svcError translates a service error into the JSON envelope. Unexpected
// errors never leak their detail to the caller.
func svcError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return errorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidation):
		return errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		return errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPermission):
		return errorResponse(c, http.StatusForbidden, err.Error())
	default:
		return errorResponse(c, http.StatusInternalServerError, "internal error")
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
