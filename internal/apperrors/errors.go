// Package apperrors provides structured application errors with job-state mapping.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	// ErrParse: a response or input could not be parsed into the expected shape.
	ErrParse = errors.New("parsing error")

	// ErrConnection: transport-level failure talking to a target service.
	ErrConnection = errors.New("connection error")

	// ErrAuthentication: the login step was explicitly rejected.
	ErrAuthentication = errors.New("authentication error")

	// ErrPredictor: uncategorized adapter or protocol error.
	ErrPredictor = errors.New("predictor error")

	// ErrInput: a mutation-file line or job descriptor is invalid.
	ErrInput = errors.New("input error")

	// ErrConfig: the run cannot start (bad configuration, empty predictor set).
	ErrConfig = errors.New("configuration error")
)

// Error provides a structured error with context.
type Error struct {
	Sentinel   error  // Wrapped sentinel for errors.Is() classification
	Message    string // Human-readable message
	Op         string // Operation that failed (e.g., "session.get", "adapter.poll")
	Permissive bool   // Expected/tolerable miss: retry instead of failing the job
	Cause      error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() classification.
func (e *Error) Unwrap() error {
	return e.Sentinel
}

// Parse creates a parsing error for an operation.
func Parse(op string, cause error) error {
	return &Error{
		Sentinel: ErrParse,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// ParseMiss creates a permissive parsing error: the expected data was not in
// the response yet. Callers treat it as "not ready", not as a failure.
func ParseMiss(op string, cause error) error {
	return &Error{
		Sentinel:   ErrParse,
		Message:    fmt.Sprintf("%s: %v", op, cause),
		Op:         op,
		Permissive: true,
		Cause:      cause,
	}
}

// Connection creates a transport error for an operation.
func Connection(op string, cause error) error {
	return &Error{
		Sentinel: ErrConnection,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// Authentication creates an explicit login rejection.
func Authentication(message string) error {
	return &Error{
		Sentinel: ErrAuthentication,
		Message:  message,
	}
}

// Predictor creates an uncategorized adapter error.
func Predictor(op string, cause error) error {
	return &Error{
		Sentinel: ErrPredictor,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// Input creates a job-descriptor validation error.
func Input(message string) error {
	return &Error{
		Sentinel: ErrInput,
		Message:  message,
	}
}

// Config creates a run-level configuration error.
func Config(message string) error {
	return &Error{
		Sentinel: ErrConfig,
		Message:  message,
	}
}

// IsPermissive reports whether err is a permissive parse miss.
func IsPermissive(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Permissive
}
