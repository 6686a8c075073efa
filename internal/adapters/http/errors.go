package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoscatter/internal/core/domain"
	"github.com/samirrijal/geoscatter/internal/pkg/colormap"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, too_many_categories, job_failed, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errorStatuses maps domain errors to a status and code. Order matters for
// errors wrapping more than one sentinel.
var errorStatuses = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrTooManyCategories, fiber.StatusUnprocessableEntity, "too_many_categories"},
	{domain.ErrInvalidCoordinate, fiber.StatusUnprocessableEntity, "invalid_coordinate"},
	{domain.ErrColumnNotFound, fiber.StatusUnprocessableEntity, "column_not_found"},
	{domain.ErrColumnType, fiber.StatusUnprocessableEntity, "column_type"},
	{domain.ErrJobFailed, fiber.StatusUnprocessableEntity, "job_failed"},
	{domain.ErrInvalidJob, fiber.StatusBadRequest, "bad_request"},
	{colormap.ErrUnknownColorMap, fiber.StatusBadRequest, "bad_request"},
	{domain.ErrNotConfigured, fiber.StatusServiceUnavailable, "unavailable"},
	{context.DeadlineExceeded, fiber.StatusGatewayTimeout, "timeout"},
}

// writeError responds with the status matching err, or 500.
func writeError(c *fiber.Ctx, err error) error {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return newError(c, e.status, e.code, err.Error())
		}
	}
	LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return errInternal(c, err.Error())
}
