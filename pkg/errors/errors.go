// Package errors provides structured error types for flatmine.
//
// Every failure in the crawl pipeline falls into one of three severities,
// and the error code tells callers which one applies:
//
//   - Skip-and-continue: NETWORK_ERROR, CLONE_FAILED, INVALID_FORMAT.
//     The unit (a repository, a file, a store record) is abandoned and
//     processing moves on.
//   - Reject: INVALID_MANIFEST, INVALID_MODULE. The input is structurally
//     present but semantically invalid; it is not stored and it is not a
//     crawl failure.
//   - Fatal: INVALID_PATH, INVALID_IDENTIFIER. The process cannot continue.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidManifest, "required field %s is missing", "sdk")
//	if errors.Is(err, errors.ErrCodeInvalidManifest) {
//	    // not a manifest, keep walking
//	}
//
//	err = errors.Wrap(errors.ErrCodeCloneFailed, cause, "clone %s", url)
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
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidManifest   Code = "INVALID_MANIFEST"
	ErrCodeInvalidModule     Code = "INVALID_MODULE"
	ErrCodeInvalidIdentifier Code = "INVALID_IDENTIFIER"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network and VCS errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeCloneFailed Code = "CLONE_FAILED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

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

// IsFatal reports whether err carries a code that must abort the process.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidPath, ErrCodeInvalidIdentifier:
		return true
	}
	return false
}

// IsRejection reports whether err marks an input that is present but not a
// valid manifest or module.
func IsRejection(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidManifest, ErrCodeInvalidModule:
		return true
	}
	return false
}
