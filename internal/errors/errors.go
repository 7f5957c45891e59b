package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ===========================================================================
// Custom Errors
// Standard application errors, each mapped to an HTTP status code
// ===========================================================================

// Sentinel errors for use with errors.Is()
var (
	// ErrNotFound resource does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized missing or invalid authentication
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden authenticated but not allowed
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput request payload failed validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateEntry unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrConflict data conflict (e.g. concurrent update)
	ErrConflict = errors.New("conflict")

	// ErrInternal internal server error
	ErrInternal = errors.New("internal server error")

	// ErrTimeout request timeout
	ErrTimeout = errors.New("timeout")

	// Auth errors
	// ErrInvalidCredentials wrong email or password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired token past expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken malformed or revoked token
	ErrInvalidToken = errors.New("invalid token")
)

// ===========================================================================
// AppError
// ===========================================================================

// AppError detailed error structure
type AppError struct {
	// Err wrapped error
	Err error

	// Message user-facing error message
	Message string

	// Code machine-readable code (e.g. "NOT_FOUND")
	Code string

	// StatusCode HTTP status code
	StatusCode int
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error (for errors.Is/As)
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError from a sentinel error
func New(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: StatusCode(err),
		Code:       ErrorCode(err),
	}
}

// Wrap wraps an error with additional context, keeping the chain intact
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// ===========================================================================
// Error Mapping Functions
// ===========================================================================

// StatusCode returns the HTTP status code for an error
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the machine-readable code for an error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrDuplicateEntry):
		return "DUPLICATE_ENTRY"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrTokenExpired):
		return "TOKEN_EXPIRED"
	case errors.Is(err, ErrInvalidToken):
		return "INVALID_TOKEN"
	default:
		return "INTERNAL_ERROR"
	}
}

// Is helper for errors.Is()
func Is(err, target error) bool {
	return errors.Is(err, target)
}
