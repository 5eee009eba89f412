package transform

import (
	"errors"
	"fmt"
	"strconv"
)

// DispatchError reports a message the registry could not apply.
//
// Dispatch errors are local to the offending message: the pattern is left
// unchanged and the engine stays usable.
type DispatchError struct {
	// Code identifies the error category.
	Code DispatchErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the transform name as received.
	Name string

	// Details contains arity context for ARITY_MISMATCH.
	Details map[string]string
}

// DispatchErrorCode categorizes dispatch errors.
type DispatchErrorCode string

const (
	// ErrCodeUnknownTransform indicates no transform is registered under the name.
	ErrCodeUnknownTransform DispatchErrorCode = "UNKNOWN_TRANSFORM"

	// ErrCodeArityMismatch indicates the argument count violates the contract.
	ErrCodeArityMismatch DispatchErrorCode = "ARITY_MISMATCH"
)

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %s (name=%s)", e.Code, e.Message, e.Name)
}

// IsUnknownTransform returns true if err is an unknown-transform error.
// Uses errors.As to handle wrapped errors.
func IsUnknownTransform(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeUnknownTransform
	}
	return false
}

// IsArityMismatch returns true if err is an arity-mismatch error.
func IsArityMismatch(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeArityMismatch
	}
	return false
}

// NewUnknownTransformError creates a DispatchError for an unregistered name.
func NewUnknownTransformError(name string) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeUnknownTransform,
		Message: "unknown message",
		Name:    name,
	}
}

// NewArityError creates a DispatchError for a wrong argument count.
func NewArityError(name string, minArgs, maxArgs, got int) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeArityMismatch,
		Message: fmt.Sprintf("expects %s args, got %d", FormatArity(minArgs, maxArgs), got),
		Name:    name,
		Details: map[string]string{
			"min_args": strconv.Itoa(minArgs),
			"max_args": strconv.Itoa(maxArgs),
			"got":      strconv.Itoa(got),
		},
	}
}

// FormatArity renders an arity contract such as "2", "0-1" or "1+".
func FormatArity(minArgs, maxArgs int) string {
	switch {
	case maxArgs == Unbounded:
		return strconv.Itoa(minArgs) + "+"
	case minArgs == maxArgs:
		return strconv.Itoa(minArgs)
	default:
		return fmt.Sprintf("%d-%d", minArgs, maxArgs)
	}
}
