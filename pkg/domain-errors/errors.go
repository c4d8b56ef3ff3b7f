// Package domainerrors provides coded errors for the engine boundary.
//
// Services return these so callers (HTTP handlers, workers) can map business
// meaning to transport responses without re-deriving it. Stores do NOT use
// this package; they return pkg/platform/sentinel errors which services
// translate into coded errors with human-readable reasons.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error by its business meaning, not its origin.
type Code string

const (
	// CodeInvalidInput marks structurally malformed input caught at a trust
	// boundary (bad UUID, empty required field).
	CodeInvalidInput Code = "invalid_input"
	// CodeValidation marks semantically invalid input (leave end before start).
	CodeValidation Code = "validation"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks an operation that would violate a state invariant
	// (duplicate active assignment, overlapping leave, duplicate session key).
	CodeConflict Code = "conflict"
	// CodeTransaction marks a unit of work that failed to begin or commit.
	// The store is guaranteed to be in its pre-call state.
	CodeTransaction Code = "transaction"
	// CodeTimeout marks an operation aborted by context cancellation/deadline.
	CodeTimeout Code = "timeout"
	// CodeUnauthorized marks a missing or unusable actor identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvariantViolation marks an aggregate-level transition that is not
	// allowed from the current state. Services usually re-code these as
	// CodeConflict with an operation-specific reason.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a coded error with a human-readable, caller-presentable reason.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err is uncoded.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// Reason returns the caller-presentable message carried by err, or the raw
// error string when err is uncoded.
func Reason(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return err.Error()
}
