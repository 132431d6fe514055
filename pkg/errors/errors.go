// Package errors provides structured error types for the dungen application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - INSUFFICIENT_*: Generation preconditions that cannot be met
//   - NOT_FOUND: Resource not found
//   - INTERNAL_ERROR: Unexpected internal errors
//
// Generation-terminal conditions (INSUFFICIENT_REQUIRED_SPACE,
// INSUFFICIENT_SPACE, INVALID_HISTORY, BACKTRACK_LIMIT_EXCEEDED) are the only
// errors the placement engine surfaces. Collision retries and spawn-once
// rejections are ordinary control flow inside the search and never appear as
// errors.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidTheme, "category %q has no assets", id)
//	if errors.Is(err, errors.ErrCodeInvalidTheme) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "save layout %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidConfig Code = "INVALID_CONFIGURATION"
	ErrCodeInvalidTheme  Code = "INVALID_THEME"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidInput  Code = "INVALID_INPUT"

	// Generation-terminal errors
	ErrCodeInsufficientRequiredSpace Code = "INSUFFICIENT_REQUIRED_SPACE"
	ErrCodeInsufficientSpace         Code = "INSUFFICIENT_SPACE"
	ErrCodeInvalidHistory            Code = "INVALID_HISTORY"
	ErrCodeBacktrackLimit            Code = "BACKTRACK_LIMIT_EXCEEDED"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeStorage  Code = "STORAGE_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// Terminal reports whether err is one of the four generation-terminal
// conditions raised by the placement engine.
func Terminal(err error) bool {
	switch GetCode(err) {
	case ErrCodeInsufficientRequiredSpace, ErrCodeInsufficientSpace,
		ErrCodeInvalidHistory, ErrCodeBacktrackLimit:
		return true
	}
	return false
}
