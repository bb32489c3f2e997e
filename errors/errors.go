package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidOffset indicates a dash offset that does not point at an em dash.
	// This is a programming-contract violation, never silently recovered.
	ErrInvalidOffset = errors.New("offset does not point at an em dash")

	// ErrModelUnavailable indicates the NLP feature provider failed to load.
	// Contextual dash replacement cannot proceed; callers fall back to the
	// simple substitution table or propagate the failure.
	ErrModelUnavailable = errors.New("nlp model unavailable")

	// ErrDatabaseOperation indicates a database operation failed
	ErrDatabaseOperation = errors.New("database operation failed")
)

// WrapError wraps an error with a context message
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with a formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidOffset checks if error is an invalid dash offset error
func IsInvalidOffset(err error) bool {
	return errors.Is(err, ErrInvalidOffset)
}

// IsModelUnavailable checks if error is a model load failure
func IsModelUnavailable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}
