package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"agendly/rbac"
)

// ErrorResponse creates a standardized error response
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"success": false,
		"error":   message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	return c.Status(status).JSON(response)
}

// SuccessResponse creates a standardized success response
func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    data,
	}
}

// StatusForError maps the rbac error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a server-side failure.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, rbac.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, rbac.ErrPermissionDenied):
		return fiber.StatusForbidden
	case errors.Is(err, rbac.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, rbac.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ParseUint safely parses a string to uint
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}

// ParseISOTime parses an ISO-8601 timestamp as sent by the calendar
// frontend ("2024-03-01T09:00:00Z" or with a numeric offset).
func ParseISOTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}
