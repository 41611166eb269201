package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
)

// ProblemDetail is an RFC 7807 error response.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

// problemFromError maps domain errors onto problem responses. Anything
// unrecognized becomes a masked 500 so internals never leak.
func problemFromError(c *fiber.Ctx, err error) error {
	var svcErr *apperr.ServiceError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", err.Error())
	case errors.Is(err, apperr.ErrInvalidInput):
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_input", "Bad Request", err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		return problemResponse(c, fiber.StatusUnauthorized,
			"unauthorized", "Unauthorized", err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		return problemResponse(c, fiber.StatusForbidden,
			"forbidden", "Forbidden", err.Error())
	case errors.Is(err, apperr.ErrLLMUnavailable):
		return problemResponse(c, fiber.StatusServiceUnavailable,
			"llm_unavailable", "Service Unavailable", err.Error())
	case errors.Is(err, apperr.ErrTimeout):
		return problemResponse(c, fiber.StatusGatewayTimeout,
			"timeout", "Gateway Timeout", err.Error())
	case errors.Is(err, apperr.ErrUnavailable):
		return problemResponse(c, fiber.StatusServiceUnavailable,
			"unavailable", "Service Unavailable", err.Error())
	case errors.As(err, &svcErr):
		return problemResponse(c, fiber.StatusBadGateway,
			"upstream_error", "Bad Gateway", svcErr.Error())
	default:
		return problemResponse(c, fiber.StatusInternalServerError,
			"internal_error", "Internal Server Error", "An internal error occurred")
	}
}
