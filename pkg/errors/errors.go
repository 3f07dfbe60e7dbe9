// Package errors provides structured error types for netgraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - Telling netlist-authoring mistakes apart from corrupt input models
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - STRUCTURAL_VIOLATION, REFERENTIAL_INTEGRITY, NAME_COLLISION: graph
//     construction failures
//   - *_NOT_FOUND: Resource not found
//   - PROVIDER_ERROR, NETWORK_ERROR, INTERNAL_*: Failures of collaborators
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidNetlist, "unknown master %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidNetlist) {
//	    // Handle validation error
//	}
//
//	// Net-level violations carry a *NetError cause
//	var ne *errors.NetError
//	if stderrors.As(err, &ne) {
//	    fmt.Println(ne.Net, ne.Kind)
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
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidNetlist Code = "INVALID_NETLIST"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Graph construction errors
	ErrCodeStructuralViolation  Code = "STRUCTURAL_VIOLATION"
	ErrCodeReferentialIntegrity Code = "REFERENTIAL_INTEGRITY"
	ErrCodeNameCollision        Code = "NAME_COLLISION"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Collaborator errors
	ErrCodeProvider Code = "PROVIDER_ERROR"
	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeTimeout  Code = "TIMEOUT"

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
	if e.Cause != nil && e.Cause.Error() != e.Message {
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

// Violation names the way a single net breaks the netlist rules.
type Violation string

const (
	// ViolationAmbiguousDriver: more than one source drives the net.
	ViolationAmbiguousDriver Violation = "ambiguous driver"
	// ViolationUnconnectedNet: nothing drives the net.
	ViolationUnconnectedNet Violation = "unconnected net"
	// ViolationDanglingTerminal: a terminal names an instance or pin that is
	// not part of the design.
	ViolationDanglingTerminal Violation = "dangling terminal"
)

// NetError describes a violation on one net.
type NetError struct {
	Net      string    // Offending net
	Kind     Violation // What went wrong
	Drivers  []string  // Competing drivers (ambiguous driver only)
	Terminal string    // Unresolvable element name (dangling terminal only)
}

// Error implements the error interface.
func (e *NetError) Error() string {
	switch {
	case len(e.Drivers) > 0:
		return fmt.Sprintf("net %q: %s (%s)", e.Net, e.Kind, strings.Join(e.Drivers, ", "))
	case e.Terminal != "":
		return fmt.Sprintf("net %q: %s %q", e.Net, e.Kind, e.Terminal)
	default:
		return fmt.Sprintf("net %q: %s", e.Net, e.Kind)
	}
}

// Code returns the error code for this violation.
func (e *NetError) Code() Code {
	if e.Kind == ViolationDanglingTerminal {
		return ErrCodeReferentialIntegrity
	}
	return ErrCodeStructuralViolation
}

// AsNetError extracts the *NetError from err's chain, if any.
func AsNetError(err error) (*NetError, bool) {
	var ne *NetError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}

// Violated wraps a NetError in an *Error carrying the matching code. The
// message names the net and the violation kind, plus the competing drivers or
// the dangling terminal.
func Violated(ne *NetError) *Error {
	return Wrap(ne.Code(), ne, "%s", ne.Error())
}
