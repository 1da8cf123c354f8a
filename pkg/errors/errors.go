// Package errors provides the coded errors returned by the construction
// and editing operations.
//
// Construction failures are preconditions the caller can report to the
// user: the operation declines and the model is left exactly as it was.
// Each failure carries a machine-readable Code so the command layer can
// decide between a message and a silent refusal.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeLoopNotClosed, "edge %d has no successor", id)
//	if errors.Is(err, errors.ErrCodeLoopNotClosed) {
//	    // decline the command
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Precondition failures
	ErrCodeLoopNotClosed   Code = "LOOP_NOT_CLOSED"
	ErrCodeUnpairable      Code = "UNPAIRABLE_EDGES"
	ErrCodeCornerNotShared Code = "CORNER_NOT_SHARED"
	ErrCodeEdgeType        Code = "EDGE_TYPE"
	ErrCodeSizeTooLarge    Code = "SIZE_TOO_LARGE"
	ErrCodeSectionMismatch Code = "SECTION_MISMATCH"
	ErrCodeNoRotationMatch Code = "NO_ROTATION_MATCH"
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeLocked          Code = "LOCKED"

	// Geometry that cannot be recovered locally
	ErrCodeDegenerate Code = "DEGENERATE"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

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

// Is reports whether err has the given error code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, or "" if it has none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
