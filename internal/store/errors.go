package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/amora-planner/internal/domain"
)

// Error taxonomy shared by every Backend implementation.
var (
	// ErrUnauthorized is returned when the backend rejects the held credential.
	// The credential has already been cleared when this is returned.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNetworkUnreachable is returned when no HTTP response was received:
	// DNS failure, refused connection or timeout.
	ErrNetworkUnreachable = errors.New("network unreachable")

	// ErrRequestFailed is returned when the backend answered with an error status.
	// The concrete error is a *RequestError.
	ErrRequestFailed = errors.New("request failed")

	// ErrAuthenticationFailed is returned by Login when the exchange was rejected
	// or the backend was unreachable. The original cause stays matchable.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrValidationFailed is returned before any I/O when caller input is out of range.
	ErrValidationFailed = domain.ErrValidation

	// ErrOfflineBlocked is returned in offline mode for operations the local
	// store does not emulate.
	ErrOfflineBlocked = errors.New("operation not available offline")

	// ErrStorageFailed is returned when the local key/value store fails.
	ErrStorageFailed = errors.New("local storage failed")
)

// RequestError carries the status and message of a failed backend response.
type RequestError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface for RequestError.
func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRequestFailed.Error(), e.Message)
}

// Unwrap lets errors.Is(err, ErrRequestFailed) match.
func (e *RequestError) Unwrap() error {
	return ErrRequestFailed
}

// NewRequestError builds a RequestError.
func NewRequestError(status int, message string) *RequestError {
	return &RequestError{StatusCode: status, Message: message}
}

// AuthenticationError wraps a login failure with its cause.
func AuthenticationError(cause error) error {
	return fmt.Errorf("%w: %w", ErrAuthenticationFailed, cause)
}

// ErrorCategory names a class of failure a caller can react to.
type ErrorCategory string

// Error categories, one per sentinel plus cancellation and the fallback.
const (
	CategoryNone                 ErrorCategory = ""
	CategoryUnauthorized         ErrorCategory = "unauthorized"
	CategoryNetworkUnreachable   ErrorCategory = "network_unreachable"
	CategoryRequestFailed        ErrorCategory = "request_failed"
	CategoryAuthenticationFailed ErrorCategory = "authentication_failed"
	CategoryValidationFailed     ErrorCategory = "validation_failed"
	CategoryOfflineBlocked       ErrorCategory = "offline_blocked"
	CategoryStorageFailed        ErrorCategory = "storage_failed"
	CategoryCanceled             ErrorCategory = "canceled"
	CategoryUnknown              ErrorCategory = "unknown"
)

// Category classifies err. AuthenticationFailed is checked first because it
// wraps Unauthorized or NetworkUnreachable.
func Category(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrAuthenticationFailed):
		return CategoryAuthenticationFailed
	case errors.Is(err, ErrUnauthorized):
		return CategoryUnauthorized
	case errors.Is(err, ErrNetworkUnreachable):
		return CategoryNetworkUnreachable
	case errors.Is(err, ErrValidationFailed):
		return CategoryValidationFailed
	case errors.Is(err, ErrOfflineBlocked):
		return CategoryOfflineBlocked
	case errors.Is(err, ErrRequestFailed):
		return CategoryRequestFailed
	case errors.Is(err, ErrStorageFailed):
		return CategoryStorageFailed
	case errors.Is(err, context.Canceled):
		return CategoryCanceled
	default:
		return CategoryUnknown
	}
}

// Message returns a short user-facing description of the category.
func (c ErrorCategory) Message() string {
	switch c {
	case CategoryNone:
		return ""
	case CategoryUnauthorized:
		return "session expired, please log in again"
	case CategoryNetworkUnreachable:
		return "server unreachable, check the connection or switch to offline mode"
	case CategoryRequestFailed:
		return "the server rejected the request"
	case CategoryAuthenticationFailed:
		return "login failed, check your credentials or continue offline"
	case CategoryValidationFailed:
		return "invalid input"
	case CategoryOfflineBlocked:
		return "not available in offline mode"
	case CategoryStorageFailed:
		return "local storage error"
	case CategoryCanceled:
		return "operation canceled"
	default:
		return "unexpected error"
	}
}

// Retryable reports whether repeating the same call may succeed without any
// change by the user.
func (c ErrorCategory) Retryable() bool {
	return c == CategoryNetworkUnreachable || c == CategoryStorageFailed
}
