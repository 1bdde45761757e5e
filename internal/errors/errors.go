// Package apperrors defines the application-level error types of fibbench
// and maps them to process exit codes.
//
// Errors are wrapped with fmt.Errorf and %w; every type here implements
// Unwrap where it carries a cause, so errors.Is and errors.As see through
// them to the engine sentinels (fibonacci.ErrUnknownVariant,
// fibonacci.ErrInvalidModulus) and to context errors.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agbru/fibbench/internal/fibonacci"
)

// Application exit codes.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorMismatch = 3   // Indicates a result mismatch between algorithms.
	ExitErrorConfig   = 4   // Indicates invalid flags, configuration or input.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError is a user configuration error: an invalid flag, environment
// variable or configuration file entry.
type ConfigError struct {
	Message string
	Cause   error
}

func (e ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e ConfigError) Unwrap() error { return e.Cause }

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// WrapConfigError creates a ConfigError around cause, such as a YAML
// decoding failure.
func WrapConfigError(cause error, format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...), Cause: cause}
}

// CalculationError records which algorithm failed for which index.
type CalculationError struct {
	Algorithm string
	N         uint64
	Cause     error
}

func (e CalculationError) Error() string {
	return fmt.Sprintf("%s F(%d): %v", e.Algorithm, e.N, e.Cause)
}

func (e CalculationError) Unwrap() error { return e.Cause }

// MismatchError reports exact algorithms that disagreed on F(N).
type MismatchError struct {
	N          uint64
	Algorithms []string
}

func (e MismatchError) Error() string {
	return fmt.Sprintf("inconsistent results for F(%d) from %s", e.N, strings.Join(e.Algorithms, ", "))
}

// ServerError represents errors that occur in the HTTP server component.
type ServerError struct {
	Message string
	Cause   error
}

func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// ValidationError rejects one input field, in an API request or in
// service-level boundary checks such as the maximum index per algorithm.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// WrapError adds context to err with %w. It returns nil for a nil err.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsInputError reports whether err was caused by bad user input: invalid
// configuration, a failed validation, an unknown algorithm name or an
// invalid modulus.
func IsInputError(err error) bool {
	var ce ConfigError
	var ve ValidationError
	return errors.As(err, &ce) || errors.As(err, &ve) ||
		errors.Is(err, fibonacci.ErrUnknownVariant) ||
		errors.Is(err, fibonacci.ErrInvalidModulus)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	var me MismatchError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &me):
		return ExitErrorMismatch
	case IsInputError(err):
		return ExitErrorConfig
	default:
		return ExitErrorGeneric
	}
}
