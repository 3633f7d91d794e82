// Package errors provides typed errors for chunkplan
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrConfig indicates a configuration error (bad split key, missing field)
	ErrConfig ErrorType = iota
	// ErrSchema indicates an oracle response that does not match the declared schema
	ErrSchema
	// ErrTransport indicates the oracle backend could not be reached
	ErrTransport
	// ErrValidation indicates an input validation error
	ErrValidation
	// ErrTimeout indicates a timeout occurred
	ErrTimeout
)

// PlanError is the base error type for all chunkplan errors
type PlanError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns the error message
func (e *PlanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", errorTypeString(e.Type), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", errorTypeString(e.Type), e.Message)
}

// Unwrap returns the underlying cause
func (e *PlanError) Unwrap() error {
	return e.Cause
}

// New creates a new PlanError
func New(errType ErrorType, message string, cause error) *PlanError {
	return &PlanError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *PlanError) WithContext(key string, value interface{}) *PlanError {
	e.Context[key] = value
	return e
}

// As is errors.As, re-exported for callers importing this package as errors.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is, re-exported for callers importing this package as errors.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var planErr *PlanError
	if err == nil {
		return false
	}
	if errors.As(err, &planErr) {
		return planErr.Type == errType
	}
	return false
}

// IsRetryable returns true if the error is transient and retrying the
// whole planning pass may succeed
func IsRetryable(err error) bool {
	var planErr *PlanError
	if !errors.As(err, &planErr) {
		return false
	}

	switch planErr.Type {
	case ErrTransport, ErrTimeout:
		return true
	case ErrSchema:
		// A fresh pass redraws the sample, so a malformed judgment may not repeat
		return true
	default:
		return false
	}
}

// IsFatal returns true if no retry can fix the error
func IsFatal(err error) bool {
	var planErr *PlanError
	if !errors.As(err, &planErr) {
		return false
	}

	switch planErr.Type {
	case ErrConfig, ErrValidation:
		return true
	default:
		return false
	}
}

func errorTypeString(et ErrorType) string {
	switch et {
	case ErrConfig:
		return "CONFIG"
	case ErrSchema:
		return "SCHEMA"
	case ErrTransport:
		return "TRANSPORT"
	case ErrValidation:
		return "VALIDATION"
	case ErrTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Convenience functions for common errors

// ConfigError creates a configuration error
func ConfigError(message string, cause error) *PlanError {
	return New(ErrConfig, message, cause)
}

// SchemaError creates a schema violation error
func SchemaError(message string, cause error) *PlanError {
	return New(ErrSchema, message, cause)
}

// TransportError creates an oracle transport error
func TransportError(message string, cause error) *PlanError {
	return New(ErrTransport, message, cause)
}

// ValidationError creates a validation error
func ValidationError(message string, cause error) *PlanError {
	return New(ErrValidation, message, cause)
}

// TimeoutError creates a timeout error
func TimeoutError(message string, cause error) *PlanError {
	return New(ErrTimeout, message, cause)
}
