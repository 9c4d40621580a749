// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Data-availability errors. These model "absent" rather than failure:
	// callers branch with errors.Is and treat them as skip conditions.
	ErrNoData   = errors.New("no data for period")
	ErrNotFound = errors.New("not found")

	// ErrCorruptCache signals a cache document that exists but cannot be
	// parsed. This is a data-integrity violation, not a miss, and must
	// never be treated as absent.
	ErrCorruptCache = errors.New("cache document corrupted")

	// Input schema errors.
	ErrMissingColumn = errors.New("required column missing")
	ErrBadDate       = errors.New("unparsable date value")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsNoData reports whether err wraps ErrNoData.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
