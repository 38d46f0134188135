package types

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Configuration related errors
	ErrCodeConfiguration  ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeInvalidConfig  ErrorCode = "INVALID_CONFIG"
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"

	// Node lifecycle related errors
	ErrCodeNodeNotStarted ErrorCode = "NODE_NOT_STARTED"
	ErrCodeShutdownFault  ErrorCode = "SHUTDOWN_FAULT"
)

// GridError represents a structured error in mockgrid
type GridError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"cause,omitempty"`
}

// NewGridError creates a new GridError
func NewGridError(code ErrorCode, message string) *GridError {
	return &GridError{
		Code:      code,
		Message:   message,
		Details:   make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// NewGridErrorWithCause creates a new GridError with a cause
func NewGridErrorWithCause(code ErrorCode, message string, cause error) *GridError {
	err := NewGridError(code, message)
	err.Cause = cause
	return err
}

// WithDetail adds a detail to the error
func (e *GridError) WithDetail(key string, value interface{}) *GridError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Error implements the error interface
func (e *GridError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *GridError) Unwrap() error {
	return e.Cause
}

// IsCode checks if this error is of a specific code
func (e *GridError) IsCode(code ErrorCode) bool {
	return e.Code == code
}

// Is implements errors.Is comparison by error code
func (e *GridError) Is(target error) bool {
	if ge, ok := target.(*GridError); ok {
		return e.Code == ge.Code
	}
	return false
}

// Common error constructors for frequently used errors

// ErrBadNodeIndex creates a configuration error for an out-of-range node index
func ErrBadNodeIndex(index, count int) *GridError {
	return NewGridError(ErrCodeConfiguration, "node index out of range").
		WithDetail("index", index).
		WithDetail("node_count", count)
}

// ErrNodeNotStarted creates an error for an operation against a non-running node
func ErrNodeNotStarted(name NodeName) *GridError {
	return NewGridError(ErrCodeNodeNotStarted, "node is not started").
		WithDetail("node", name)
}

// ErrShutdownFault wraps a fault observed while shutting a node down. Shutdown
// faults are diagnostic only and never propagate as operation failures.
func ErrShutdownFault(name NodeName, cause error) *GridError {
	return NewGridErrorWithCause(ErrCodeShutdownFault, "node shutdown reported a fault", cause).
		WithDetail("node", name)
}

// ErrInvalidConfig creates an invalid configuration error
func ErrInvalidConfig(message string) *GridError {
	return NewGridError(ErrCodeInvalidConfig, message)
}
