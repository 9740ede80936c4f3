package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for action dispatch.
var (
	// ErrActionNotFound is returned when an action name does not resolve to
	// a registered handler.
	ErrActionNotFound = errors.New("action not found")

	// ErrInvocation is matched by every InvocationError.
	ErrInvocation = errors.New("action invocation failed")
)

// ActionError reports an action name that is not registered.
type ActionError struct {
	Action string
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %q", ErrActionNotFound, e.Action)
}

// Is allows the error to be compared with ErrActionNotFound.
func (e *ActionError) Is(target error) bool {
	return target == ErrActionNotFound
}

// InvocationError reports that a handler failed.
type InvocationError struct {
	// Action is the action whose handler failed.
	Action string

	// Err is the error returned by the handler, or a description of the
	// recovered panic.
	Err error

	// Panicked is true when the handler panicked.
	Panicked bool
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInvocation, e.Action, e.Err)
}

// Unwrap returns the handler error so callers can match domain errors.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Is allows the error to be compared with ErrInvocation.
func (e *InvocationError) Is(target error) bool {
	return target == ErrInvocation
}

// wrapInvocation wraps err unless it already is an InvocationError, so nested
// chains do not stack wrappers.
func wrapInvocation(action string, err error) error {
	var inv *InvocationError
	if errors.As(err, &inv) {
		return err
	}
	return &InvocationError{Action: action, Err: err}
}

// Error wraps configuration errors with additional context.
// It provides structured error information that can be used for
// logging and returning appropriate error responses.
type Error struct {
	// Code is a machine-readable error code (e.g., "duplicate_action")
	Code string

	// Message is a human-readable error message
	Message string

	// Details contains the underlying error
	Details error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Details
}

// Common error codes
const (
	ErrorCodeConfigInvalid   = "config_invalid"
	ErrorCodeDuplicateAction = "duplicate_action"
	ErrorCodeCoreNotSet      = "core_not_set"
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string, details error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: details,
	}
}
