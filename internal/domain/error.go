package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Scheduling
	ErrInvalidTime      = errors.New("invalid time format, expected HH:MM")
	ErrScheduleExists   = errors.New("schedule already exists for this time")
	ErrScheduleNotFound = errors.New("schedule not found for this time")
	ErrQueueFull        = errors.New("worker queue full")

	// Generation
	ErrNoTopicsLeft        = errors.New("all topics have been used")
	ErrGeneration          = errors.New("content generation failed")
	ErrMalformedGeneration = errors.New("malformed generator output")

	// Publishing
	ErrPublisherDisabled = errors.New("publisher is not configured")

	// Retry
	ErrRetriesExhausted = errors.New("max retries exceeded")
)

// RetryableError tags an error as transient.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return "retryable: " + e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// NonRetryableError tags an error as fatal for the current run; the retry loop stops on it.
type NonRetryableError struct{ Err error }

func (e *NonRetryableError) Error() string { return "non-retryable: " + e.Err.Error() }
func (e *NonRetryableError) Unwrap() error { return e.Err }

func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// NonRetryablef is a shorthand for NonRetryable(fmt.Errorf(...)).
func NonRetryablef(format string, args ...any) error {
	return NonRetryable(fmt.Errorf(format, args...))
}

func IsRetryable(err error) bool {
	var r *RetryableError
	return errors.As(err, &r)
}

func IsNonRetryable(err error) bool {
	var n *NonRetryableError
	return errors.As(err, &n)
}
