// Package apperr defines the domain error kinds shared by services and
// handlers. Services return these (wrapped with context via fmt.Errorf and
// %w); handlers map them to HTTP status codes with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: thread, message or notification does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized: the acting user is not a participant/owner for the
	// requested mutation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation: malformed input or a missing required relation.
	ErrValidation = errors.New("validation failed")
)

// Storage wraps a persistence-layer failure. It is surfaced as a generic
// internal error and never retried here.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("storage: %s: %w", op, err)
}

func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func Unauthorized(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrUnauthorized)
}

func Validation(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrValidation)
}
