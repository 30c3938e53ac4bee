package core

import (
	"errors"
	"fmt"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Message string
	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// FatalError marks a producer failure that must not be retried
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps an error so the retry layer gives up immediately
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsRetryable reports whether a producer failure may be retried.
// Failures are retryable unless explicitly marked fatal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var fatal *FatalError
	return !errors.As(err, &fatal)
}
