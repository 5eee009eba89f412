package engine

import (
	"errors"
	"fmt"
)

// EngineError represents a message the engine or its runner refused.
//
// Rejected transforms are reported as *transform.DispatchError instead;
// EngineError covers what happens before dispatch:
//   - Empty message: a message with no selector
//   - Runner stopped: an event sent after the runner's queue closed
type EngineError struct {
	// Code identifies the error category.
	Code EngineErrorCode

	// Message is a human-readable description.
	Message string

	// Event names the rejected event kind, if any.
	Event string
}

// EngineErrorCode categorizes engine errors.
type EngineErrorCode string

const (
	// ErrCodeEmptyMessage indicates a message without a selector.
	ErrCodeEmptyMessage EngineErrorCode = "EMPTY_MESSAGE"

	// ErrCodeRunnerStopped indicates the runner no longer accepts events.
	ErrCodeRunnerStopped EngineErrorCode = "RUNNER_STOPPED"
)

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.Event)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsStopped returns true if err reports a stopped runner.
// Uses errors.As to handle wrapped errors.
func IsStopped(err error) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeRunnerStopped
	}
	return false
}

// IsEmptyMessage returns true if err reports a message without a selector.
func IsEmptyMessage(err error) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeEmptyMessage
	}
	return false
}

// NewEmptyMessageError creates an EngineError for a missing selector.
func NewEmptyMessageError() *EngineError {
	return &EngineError{
		Code:    ErrCodeEmptyMessage,
		Message: "message has no selector",
	}
}

// NewStoppedError creates an EngineError for an event sent to a stopped runner.
func NewStoppedError(event EventType) *EngineError {
	return &EngineError{
		Code:    ErrCodeRunnerStopped,
		Message: "runner stopped",
		Event:   event.String(),
	}
}
