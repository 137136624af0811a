package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the workflow.
type ErrorCode string

// Workflow error codes
const (
	ErrToolUnavailable    ErrorCode = "TOOL_UNAVAILABLE"    // retrieval/judgment call failed, recovered locally
	ErrMalformedJudgment  ErrorCode = "MALFORMED_JUDGMENT"  // judgment output failed schema validation
	ErrConfiguration      ErrorCode = "CONFIGURATION"       // invalid configuration, fatal at construction
	ErrInvalidTransition  ErrorCode = "INVALID_TRANSITION"  // state machine programming defect
	ErrEmptyQuestion      ErrorCode = "EMPTY_QUESTION"      // caller supplied a blank question
	ErrTimeout            ErrorCode = "TIMEOUT"             // tool call exceeded its deadline
	ErrProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
