// Package apperrors defines the structured error types shared by the outer
// layers of lanefrac (configuration, rendering, HTTP server) together with
// the process exit codes derived from them.
//
// All wrapping types implement Unwrap so errors.Is and errors.As see the
// underlying cause.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess       = 0
	ExitErrorGeneric  = 1
	ExitErrorTimeout  = 2
	ExitErrorConfig   = 4
	ExitErrorCanceled = 130 // SIGINT
)

// ConfigError reports invalid user configuration, such as a bad flag value.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// RenderError wraps the failure of a single kernel render.
type RenderError struct {
	// Kernel is the name of the kernel that failed.
	Kernel string
	Cause  error
}

func (e RenderError) Error() string {
	if e.Kernel == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("kernel %s: %v", e.Kernel, e.Cause)
}

func (e RenderError) Unwrap() error { return e.Cause }

// NewRenderError wraps cause with the kernel name. A nil cause yields nil.
func NewRenderError(kernel string, cause error) error {
	if cause == nil {
		return nil
	}
	return RenderError{Kernel: kernel, Cause: cause}
}

// ServerError represents errors that occur in the HTTP server component.
type ServerError struct {
	Message string
	// Cause is the underlying error, if any.
	Cause error
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

// WrapError adds context to err with fmt.Errorf and %w.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string describing the failed operation.
//   - args: Arguments for format.
//
// Returns:
//   - error: The wrapped error, or nil when err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError reports whether err is a context cancellation or deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError reports a rejected input value. It is used for request
// parameters and for the option structs of the rendering packages.
type ValidationError struct {
	// Field is the name of the offending field, possibly empty.
	Field   string
	Message string
	// Value is the rejected value (optional).
	Value any
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
