package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing rows, inactive products and ownership
	// mismatches that must not reveal the row exists.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller is known but may not do this.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated means no identity was presented.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrConflict is returned when a unique constraint is violated.
	ErrConflict = errors.New("conflict")

	ErrValidation = errors.New("validation failed")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
