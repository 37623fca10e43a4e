// Package errors provides structured error types for the photocard service.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the renderer
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The renderer distinguishes three failure classes:
//   - [ErrCodeInvalidLayout]: a layout document failed to parse or validate.
//     The render pipeline recovers by switching to the default layout.
//   - [ErrCodeResourceLoad]: an image reference could not be fetched or decoded.
//     The resource loader recovers by painting a placeholder.
//   - [ErrCodeEncoding]: the final canvas could not be encoded. This is the
//     only error a render call returns.
//
// The remaining codes are used by the surrounding service plumbing.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidLayout, "image area %q: width must be positive", id)
//	if errors.Is(err, errors.ErrCodeInvalidLayout) {
//	    // fall back to the default layout
//	}
//
//	err := errors.Wrap(errors.ErrCodeResourceLoad, origErr, "fetch %s", ref)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Rendering errors
	ErrCodeInvalidLayout Code = "INVALID_LAYOUT"
	ErrCodeResourceLoad  Code = "RESOURCE_LOAD"
	ErrCodeEncoding      Code = "ENCODING_ERROR"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeConflict         Code = "CONFLICT"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Config reports a layout validation failure.
func Config(format string, args ...any) *Error {
	return New(ErrCodeInvalidLayout, format, args...)
}

// ResourceLoad reports a failed image fetch or decode.
func ResourceLoad(cause error, ref string) *Error {
	return Wrap(ErrCodeResourceLoad, cause, "load %s", ref)
}

// Encoding reports a failed output encoding.
func Encoding(cause error, format string) *Error {
	return Wrap(ErrCodeEncoding, cause, "encode %s", format)
}
