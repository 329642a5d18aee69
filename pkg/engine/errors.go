// Package engine implements the core of the jobforge pipeline runtime: the
// Job/Stage/Step scope model, the live execution context, polymorphic value
// resolution, and the sequential runner with its skip and teardown rules.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of an error for propagation logic.
type ErrorClass string

const (
	// ErrorClassFatal indicates a structural programmer error.
	// Examples: unknown scope type, re-entering a running scope.
	// Fatal errors abort the run immediately.
	ErrorClassFatal ErrorClass = "fatal"

	// ErrorClassAction indicates a contained action failure.
	// Recorded against the current scope path and surfaced in the final
	// aggregate; never interrupts sibling execution or teardown.
	ErrorClassAction ErrorClass = "action"

	// ErrorClassTeardown indicates a teardown failure.
	// Always downgraded to a warning, never part of the pass/fail aggregate.
	ErrorClassTeardown ErrorClass = "teardown"
)

// EngineError represents a classified error with scope context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification for propagation logic.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Scope is the label of the scope involved, if applicable.
	Scope string `json:"scope,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("[%s] %s (scope=%s): %s", e.Class, e.Message, e.Scope, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// unwrapMessage returns the error message from the underlying error chain.
func (e *EngineError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewFatalError creates a new fatal structural error.
func NewFatalError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassFatal,
		Message: message,
		Err:     err,
	}
}

// NewActionError creates a new contained action failure.
func NewActionError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassAction,
		Message: message,
		Err:     err,
	}
}

// NewTeardownError creates a new teardown failure.
func NewTeardownError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassTeardown,
		Message: message,
		Err:     err,
	}
}

// WithScope adds scope context to an error.
func (e *EngineError) WithScope(scope string) *EngineError {
	e.Scope = scope
	return e
}

// WithCode adds an error code to an error.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// IsFatal returns true if the error is classified as fatal.
func IsFatal(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassFatal
	}
	return false
}

// IsActionFailure returns true if the error is a contained action failure.
func IsActionFailure(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassAction
	}
	return false
}

// IsTeardownFailure returns true if the error is a teardown failure.
func IsTeardownFailure(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassTeardown
	}
	return false
}

// Common error codes.
const (
	ErrCodeUnknownScope   = "UNKNOWN_SCOPE"
	ErrCodeScopeReentered = "SCOPE_REENTERED"
	ErrCodeStackImbalance = "STACK_IMBALANCE"
	ErrCodeNoValue        = "NO_VALUE"
	ErrCodeNotAssignable  = "NOT_ASSIGNABLE"
)

// RunError is the aggregate error a run raises after the whole tree,
// including teardown, has finished executing. It joins every contained
// action failure recorded during the run.
type RunError struct {
	Errors []error
}

// Error implements the error interface. The message is every recorded
// failure's string form, newline-joined.
func (e *RunError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the recorded failures to errors.Is and errors.As.
func (e *RunError) Unwrap() []error { return e.Errors }
