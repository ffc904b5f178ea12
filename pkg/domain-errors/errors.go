// Package domainerrors provides coded errors shared by all domains.
//
// Services return *Error values so handlers can map failures to transport
// status codes without inspecting message strings. Codes classify the
// failure; messages stay human-readable and stable enough to assert on.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	// CodeValidation marks structurally valid input that fails domain rules
	// (length mismatches, empty batches, out-of-range fields).
	CodeValidation Code = "validation"
	// CodeInvalidInput marks input that could not be parsed at a trust
	// boundary (malformed IDs, bad payload encodings).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks requests that are malformed at the transport
	// level (unreadable JSON bodies, missing required parameters).
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks missing or unverifiable caller identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller acting outside its rights.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks references to entities that do not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks operations rejected by current state: inactive
	// entries, one-way latches already set, insufficient balances, policy
	// windows that have not opened yet.
	CodeConflict Code = "conflict"
	// CodeTimeout marks operations abandoned because a deadline expired.
	CodeTimeout Code = "timeout"
	// CodeInternal marks unexpected infrastructure failures. Details are
	// never surfaced to callers.
	CodeInternal Code = "internal"
	// CodeInvariantViolation marks states that must be impossible. These
	// indicate bugs, not caller mistakes.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded domain error. It optionally wraps a cause; the cause
// participates in errors.Is/errors.As chains but is never rendered to
// external callers.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New builds a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// degenerates to New so call sites don't need to branch.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to the errors package.
func (e *Error) Unwrap() error {
	return e.cause
}

// HasCode reports whether err or anything it wraps carries the given code.
// The outermost coded error wins when codes disagree along the chain; this
// matches how services re-code store errors on the way out.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// Is is shorthand for HasCode, reading naturally at assertion sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code carried by err, or CodeInternal when err carries
// none. Handlers use it to map unknown failures conservatively.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}
