// Package apperr defines the error taxonomy shared across the studio
// service. Handlers map these onto HTTP problem responses; internal
// callers test them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates the request payload failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrLLMUnavailable indicates an operation needs a language model
	// client and none is configured.
	ErrLLMUnavailable = errors.New("llm client not configured")

	// ErrTimeout indicates an upstream call exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrUnavailable indicates a dependency is temporarily unavailable.
	ErrUnavailable = errors.New("service unavailable")
)

// ServiceError wraps a failure from an upstream service (LLM providers,
// storage) with enough context to log and map to a response status.
type ServiceError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Service, e.Message, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Service, e.Message, e.StatusCode)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError constructs a ServiceError for the given upstream.
func NewServiceError(service string, statusCode int, message string, err error) *ServiceError {
	return &ServiceError{
		Service:    service,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// IsRetryable reports whether the error is transient. The studio never
// retries LLM calls on its own, but handlers use this to distinguish a
// 502 from a 503 and to decide whether a Retry-After header makes sense.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable) {
		return true
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		switch {
		case svcErr.StatusCode == 429:
			return true
		case svcErr.StatusCode >= 500 && svcErr.StatusCode < 600:
			return true
		}
	}
	return false
}
