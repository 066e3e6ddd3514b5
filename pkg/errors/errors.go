// Package errors provides structured error types for the gestalt layout engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP adapter and library callers
//   - Machine-readable error codes for programmatic handling
//   - Actionable context: which block, which rule, which constraint
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Structural failures of a composition surface as one of:
//   - NORMALIZATION_ERROR: a malformed content block (unknown kind, bad level, ...)
//   - VALIDATION_ERROR: the composed layout is unsound after the repair attempt
//   - OVERFLOW_UNREPAIRABLE: a single block cannot fit on an empty page
//
// ADVISORY_TIMEOUT is logged, never returned to callers of the compose operation.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNormalization, "unknown block kind %q", kind).
//	    WithBlock(id)
//	if errors.Is(err, errors.ErrCodeNormalization) {
//	    // Handle malformed content
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Composition failures
	ErrCodeNormalization        Code = "NORMALIZATION_ERROR"
	ErrCodeValidation           Code = "VALIDATION_ERROR"
	ErrCodeOverflowUnrepairable Code = "OVERFLOW_UNREPAIRABLE"

	// Non-fatal, logged only
	ErrCodeAdvisoryTimeout Code = "ADVISORY_TIMEOUT"

	// Input and configuration errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, optional cause and diagnostic context.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)

	// Diagnostic context, each optional.
	Kind       string // Sub-kind, e.g. a validation failure kind
	BlockID    string // Offending content block
	Rule       string // Rule or check that raised the error
	Constraint string // Violated constraint, e.g. "max_pages_or_slides=3"
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Kind != "" {
		b.WriteString("[" + e.Kind + "]")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if ctx := e.context(); ctx != "" {
		b.WriteString(" (" + ctx + ")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) context() string {
	var parts []string
	if e.BlockID != "" {
		parts = append(parts, "block="+e.BlockID)
	}
	if e.Rule != "" {
		parts = append(parts, "rule="+e.Rule)
	}
	if e.Constraint != "" {
		parts = append(parts, "constraint="+e.Constraint)
	}
	return strings.Join(parts, ", ")
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithKind sets the sub-kind and returns e for chaining.
func (e *Error) WithKind(kind string) *Error {
	e.Kind = kind
	return e
}

// WithBlock sets the offending block id and returns e for chaining.
func (e *Error) WithBlock(id string) *Error {
	e.BlockID = id
	return e
}

// WithRule sets the rule or check name and returns e for chaining.
func (e *Error) WithRule(rule string) *Error {
	e.Rule = rule
	return e
}

// WithConstraint sets the violated constraint and returns e for chaining.
func (e *Error) WithConstraint(format string, args ...any) *Error {
	e.Constraint = fmt.Sprintf(format, args...)
	return e
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

// GetKind extracts the sub-kind from an error, if available.
func GetKind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As is a shorthand for errors.As into an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if ctx := e.context(); ctx != "" {
			return e.Message + " (" + ctx + ")"
		}
		return e.Message
	}
	return err.Error()
}

// IsStructural reports whether err aborts a composition: normalization,
// validation or unrepairable overflow.
func IsStructural(err error) bool {
	switch GetCode(err) {
	case ErrCodeNormalization, ErrCodeValidation, ErrCodeOverflowUnrepairable:
		return true
	}
	return false
}
