// Package errors provides structured errors with stable codes for the
// flowsource CLI. Codes let tests and the run summary identify failure
// classes without string matching.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration document errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigWrite ErrorCode = "CONFIG_WRITE"

	// Scaffold errors
	ErrSkeletonMissing ErrorCode = "SKELETON_MISSING"
	ErrScaffoldRun     ErrorCode = "SCAFFOLD_RUN"

	// Orchestration errors
	ErrUnsupportedMode ErrorCode = "UNSUPPORTED_MODE"
	ErrPhaseFailed     ErrorCode = "PHASE_FAILED"

	// Provider errors
	ErrProviderUnknown ErrorCode = "PROVIDER_UNKNOWN"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// FlowSourceError represents a structured error with code and details
type FlowSourceError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *FlowSourceError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *FlowSourceError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface; two FlowSourceErrors match when
// their codes match.
func (e *FlowSourceError) Is(target error) bool {
	var targetErr *FlowSourceError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new FlowSourceError with the given code and message
func New(code ErrorCode, message string) *FlowSourceError {
	return &FlowSourceError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new FlowSourceError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *FlowSourceError {
	return &FlowSourceError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a FlowSourceError
func Wrap(err error, code ErrorCode, message string) *FlowSourceError {
	if err == nil {
		return nil
	}
	return &FlowSourceError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *FlowSourceError {
	if err == nil {
		return nil
	}
	return &FlowSourceError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail key-value pair to the error
func (e *FlowSourceError) WithDetail(key string, value interface{}) *FlowSourceError {
	e.Details[key] = value
	return e
}

// GetCode extracts the error code from an error, returning ErrUnknown
// for non-FlowSourceError values.
func GetCode(err error) ErrorCode {
	var fsErr *FlowSourceError
	if errors.As(err, &fsErr) {
		return fsErr.Code
	}
	return ErrUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
