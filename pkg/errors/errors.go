// Package errors provides the structured error type shared by the bridge's
// outer layers (configuration loading, the HTTP bridge, the CLI).
//
// ContextualError records which component failed, during which operation, and
// optionally an HTTP status code and structured details. It implements Unwrap
// so errors.Is and errors.As see through it to the cause.
//
// Usage:
//
//	err := errors.New(errors.ComponentConfig, "Load", someErr)
//	err = err.WithStatusCode(400).WithDetails(map[string]any{"path": path})
package errors

import "fmt"

// Component names used across the module.
const (
	ComponentConfig  = "config"
	ComponentBridge  = "bridge"
	ComponentCLI     = "cosyctl"
	ComponentStorage = "statestore"
)

// ContextualError is a structured error carrying where and why a failure
// happened.
type ContextualError struct {
	// Component identifies the module that produced the error.
	Component string

	// Operation describes what was being done when the error occurred.
	Operation string

	// StatusCode is an optional HTTP status code.
	StatusCode int

	// Details holds optional structured metadata.
	Details map[string]any

	// Cause is the underlying error, if any.
	Cause error
}

// New creates a ContextualError.
func New(component, operation string, cause error) *ContextualError {
	return &ContextualError{
		Component: component,
		Operation: operation,
		Cause:     cause,
	}
}

// Error returns a human-readable representation of the error.
func (e *ContextualError) Error() string {
	base := fmt.Sprintf("[%s] %s", e.Component, e.Operation)

	if e.StatusCode != 0 {
		base += fmt.Sprintf(" (status %d)", e.StatusCode)
	}

	if e.Cause != nil {
		base += ": " + e.Cause.Error()
	}

	return base
}

// Unwrap returns the underlying cause.
func (e *ContextualError) Unwrap() error {
	return e.Cause
}

// WithStatusCode sets the status code and returns the same error for chaining.
func (e *ContextualError) WithStatusCode(code int) *ContextualError {
	e.StatusCode = code
	return e
}

// WithDetails sets the details map and returns the same error for chaining.
func (e *ContextualError) WithDetails(details map[string]any) *ContextualError {
	e.Details = details
	return e
}

// StatusCodeOr returns the error's status code, or fallback when none was set.
func (e *ContextualError) StatusCodeOr(fallback int) int {
	if e.StatusCode == 0 {
		return fallback
	}
	return e.StatusCode
}
