package pipecontext

import (
	"errors"
	"fmt"
)

// Reason says why a key failed an assertion.
type Reason string

const (
	// ReasonMissing means the key is not in the context.
	ReasonMissing Reason = "KEY_NOT_IN_CONTEXT"
	// ReasonEmpty means the key exists but its value is falsy.
	ReasonEmpty Reason = "KEY_HAS_NO_VALUE"
)

// MissingOrEmptyKeyError is returned when a step needs a context key that is absent
// or has no usable value.
type MissingOrEmptyKeyError struct {
	Reason Reason
	Key    string
	Caller string
}

// Error implements the error interface.
func (e *MissingOrEmptyKeyError) Error() string {
	if e.Reason == ReasonEmpty {
		return fmt.Sprintf("context['%s'] must have a value for %s.", e.Key, e.Caller)
	}
	return fmt.Sprintf("context['%s'] doesn't exist. It must exist for %s.", e.Key, e.Caller)
}

func newMissingKeyError(key, caller string) *MissingOrEmptyKeyError {
	return &MissingOrEmptyKeyError{Reason: ReasonMissing, Key: key, Caller: caller}
}

func newEmptyKeyError(key, caller string) *MissingOrEmptyKeyError {
	return &MissingOrEmptyKeyError{Reason: ReasonEmpty, Key: key, Caller: caller}
}

// IsMissingOrEmptyKey checks if err is, or wraps, a MissingOrEmptyKeyError.
func IsMissingOrEmptyKey(err error) bool {
	var e *MissingOrEmptyKeyError
	return errors.As(err, &e)
}

// IsKeyNotInContext checks if err reports an absent key.
func IsKeyNotInContext(err error) bool {
	var e *MissingOrEmptyKeyError
	return errors.As(err, &e) && e.Reason == ReasonMissing
}
