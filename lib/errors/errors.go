// Package errors provides structured error types for the ads-pro database
// services. All errors are designed to be safe to return to API clients
// without exposing internal implementation details.
//
// This package provides:
//   - Sentinel errors for common error conditions
//   - Error codes for API response categorization
//   - Error wrapping with context preservation
//   - Safe error messages that don't leak connection strings or credentials
package errors

import (
	"errors"
	"fmt"
)

// Error codes for categorizing errors, mapped onto HTTP status classes by
// the web layer.
const (
	CodeInvalidRequest = 400 // Malformed request
	CodeInvalidParams  = 422 // Invalid parameters
	CodeNotFound       = 404 // Resource not found
	CodeRateLimited    = 429 // Rate limit exceeded
	CodeTimeout        = 504 // Operation timeout
	CodeUnavailable    = 503 // Service unavailable
	CodeConflict       = 409 // Resource conflict
	CodeInternal       = 500 // Internal error
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrUnavailable indicates a service is unavailable.
	ErrUnavailable = errors.New("service unavailable")

	// ErrRateLimited indicates a rate limit was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrClosed indicates a resource is closed.
	ErrClosed = errors.New("closed")

	// ErrConnection indicates a database connection error.
	ErrConnection = errors.New("connection error")

	// ErrConflict indicates a resource conflict.
	ErrConflict = errors.New("conflict")

	// ErrInternal indicates an internal error.
	ErrInternal = errors.New("internal error")

	// ErrConfiguration indicates a configuration error.
	ErrConfiguration = errors.New("configuration error")
)

// Database-surface errors
var (
	// ErrDatabaseUnavailable indicates the backing database is unreachable.
	ErrDatabaseUnavailable = fmt.Errorf("database: %w", ErrUnavailable)

	// ErrDatabaseTimeout indicates a database operation timed out.
	ErrDatabaseTimeout = fmt.Errorf("database: %w", ErrTimeout)

	// ErrDatabaseConfig indicates an invalid database configuration.
	ErrDatabaseConfig = fmt.Errorf("database: %w", ErrConfiguration)
)

// Error is a structured error with a code and safe message.
// It implements the error interface and provides methods for
// error handling and response generation.
type Error struct {
	// Code is the error code for categorization
	Code int `json:"code"`
	// Message is a safe, user-facing error message
	Message string `json:"message"`
	// Err is the underlying error (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// SafeMessage returns a client-safe error message without internal details.
func (e *Error) SafeMessage() string {
	return e.Message
}

// New creates a new structured error with the given code and message.
// The message should be safe to return to clients.
func New(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and safe message.
// The original error is preserved for debugging but not exposed to clients.
func Wrap(code int, message string, err error) *Error {
	if err != nil {
		log.WithField("code", code).WithError(err).Debug("wrapping error")
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WrapInternal wraps an internal error with a generic message.
// Use this when the original error may contain sensitive information,
// such as a database DSN.
func WrapInternal(err error) *Error {
	if err != nil {
		log.WithError(err).Debug("wrapping internal error")
	}
	return &Error{
		Code:    CodeInternal,
		Message: "internal error",
		Err:     err,
	}
}

// FromSentinel creates a structured error from a sentinel error.
// It automatically assigns an appropriate error code based on the error type.
func FromSentinel(err error) *Error {
	if err == nil {
		return nil
	}

	code := codeFromError(err)
	return &Error{
		Code:    code,
		Message: err.Error(),
		Err:     err,
	}
}

// codeFromError maps sentinel errors to error codes.
func codeFromError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrClosed), errors.Is(err, ErrConnection):
		return CodeUnavailable
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrConfiguration):
		return CodeInvalidParams
	case errors.Is(err, ErrConflict):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout returns true if the error indicates a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsUnavailable returns true if the error indicates a service is unavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsInvalidInput returns true if the error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsClosed returns true if the error indicates a resource is closed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// Join combines multiple errors into a single error.
// Returns nil if all errors are nil.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target,
// and if so, sets target to that error value and returns true.
func As(err error, target any) bool {
	return errors.As(err, target)
}
