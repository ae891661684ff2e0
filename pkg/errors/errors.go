// Package errors provides structured error types for the repoharvest toolkit.
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: malformed input (bad delimiter, missing required column)
//   - NOT_FOUND_*: resource not found
//   - NETWORK_*: network and rate-limit errors
//   - CLONE_*: git clone failures
//   - CONFIG_*: missing credentials or bad configuration
//   - INTERNAL_*: unexpected internal errors
//
// Malformed-input and configuration errors abort a run; everything else is
// recorded on the affected row and the run continues.
//
//	err := errors.New(errors.ErrCodeMissingColumn, "input has no %q column", "repourl")
//	if errors.Is(err, errors.ErrCodeMissingColumn) {
//	    // fatal: abort the run
//	}
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidURL    Code = "INVALID_URL"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeMissingColumn Code = "MISSING_COLUMN"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeRepoNotFound Code = "REPO_NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Crawl errors
	ErrCodeCloneFailed  Code = "CLONE_FAILED"
	ErrCodeCommitFailed Code = "COMMIT_FAILED"

	// Configuration errors
	ErrCodeConfig             Code = "CONFIG_ERROR"
	ErrCodeMissingCredentials Code = "MISSING_CREDENTIALS"

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

// RateLimitedError is returned when a provider rejects a request because the
// request quota is exhausted. ResetAt carries the provider-declared reset
// time when the response included one; callers wait until then before
// retrying the same request.
type RateLimitedError struct {
	ResetAt time.Time // zero when the provider gave no reset time
	Message string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if !e.ResetAt.IsZero() {
		return fmt.Sprintf("rate limited: reset at %s", e.ResetAt.Format(time.RFC3339))
	}
	return "rate limited"
}

// IsRateLimited reports whether err is (or wraps) a RateLimitedError,
// returning it for access to the reset time.
func IsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
