package step

import (
	"errors"
	"fmt"
)

// ErrorCode represents the type of step error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the step is not registered.
	ErrCodeNotFound ErrorCode = "STEP_NOT_FOUND"
	// ErrCodeFailed indicates the step ran and returned an error.
	ErrCodeFailed ErrorCode = "STEP_FAILED"
	// ErrCodeInvalidParam indicates a context input has the wrong shape.
	ErrCodeInvalidParam ErrorCode = "INVALID_PARAM"
)

// StepError represents an error raised around step execution.
type StepError struct {
	Code    ErrorCode
	Step    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Code, e.Step, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Step, e.Message)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Cause
}

// NewNotFoundError creates an error for an unregistered step name.
func NewNotFoundError(name string) *StepError {
	return &StepError{
		Code:    ErrCodeNotFound,
		Step:    name,
		Message: "no step registered with this name",
	}
}

// NewFailedError wraps the error a step returned.
func NewFailedError(name string, cause error) *StepError {
	return &StepError{
		Code:    ErrCodeFailed,
		Step:    name,
		Message: "step failed",
		Cause:   cause,
	}
}

// NewInvalidParamError creates an error for a malformed context input.
func NewInvalidParamError(name, key, message string) *StepError {
	return &StepError{
		Code:    ErrCodeInvalidParam,
		Step:    name,
		Message: fmt.Sprintf("context['%s']: %s", key, message),
	}
}

// IsNotFoundError checks if the error is a step not found error.
func IsNotFoundError(err error) bool {
	var e *StepError
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}

// IsInvalidParamError checks if the error is an invalid parameter error.
func IsInvalidParamError(err error) bool {
	var e *StepError
	return errors.As(err, &e) && e.Code == ErrCodeInvalidParam
}
