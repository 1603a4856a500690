// Package errors provides structured error types for themecheck.
//
// This package defines error codes and types that enable:
//   - Consistent classification of failures across the fetch layer, the
//     pipeline stages and the command line
//   - Machine-readable codes that decide whether a failure is recorded on a
//     single theme entry or ends the run
//   - Mapping of failures to process exit codes
//
// # Error Codes
//
// Codes fall into four groups:
//   - USAGE: the command line was malformed
//   - INVARIANT, CONTRACT_VIOLATION, UNSUPPORTED, CACHE_CORRUPT: fatal
//   - NOT_FOUND, TRANSPORT, UNEXPECTED_*, TOO_MANY_REDIRECTS: fetch outcomes
//   - NO_CONFIG, PARSE_ERROR: per-entry recoverable outcomes
//
// # Usage
//
//	err := errors.New(errors.ErrCodeContract, "catalog has %d entries", 0)
//	if errors.Is(err, errors.ErrCodeContract) {
//	    // abort the run
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransport, origErr, "GET %s", url)
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Command line errors
	ErrCodeUsage Code = "USAGE"

	// Programming and contract errors (always fatal)
	ErrCodeInvariant    Code = "INVARIANT"
	ErrCodeContract     Code = "CONTRACT_VIOLATION"
	ErrCodeUnsupported  Code = "UNSUPPORTED"
	ErrCodeCacheCorrupt Code = "CACHE_CORRUPT"

	// Fetch outcomes
	ErrCodeNotFound              Code = "NOT_FOUND"
	ErrCodeTransport             Code = "TRANSPORT"
	ErrCodeUnexpectedStatus      Code = "UNEXPECTED_STATUS"
	ErrCodeUnexpectedContentType Code = "UNEXPECTED_CONTENT_TYPE"
	ErrCodeTooManyRedirects      Code = "TOO_MANY_REDIRECTS"

	// Per-entry recoverable errors
	ErrCodeNoConfig Code = "NO_CONFIG"
	ErrCodeParse    Code = "PARSE_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 1
	ExitFatal     = 2
	ExitInterrupt = 130
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

// Invariantf reports a broken caller contract. Invariant errors signal a
// programming mistake rather than an environmental failure.
func Invariantf(format string, args ...any) *Error {
	return New(ErrCodeInvariant, format, args...)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupt
	case Is(err, ErrCodeUsage):
		return ExitUsage
	default:
		return ExitFatal
	}
}
