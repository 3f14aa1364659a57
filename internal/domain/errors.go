package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals a missing item.
	ErrNotFound = errors.New("item not found")
	// ErrValidation signals missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream signals a similarity service or notification dispatch failure.
	ErrUpstream = errors.New("upstream failure")
	// ErrAlreadyRegistered signals a second attempt to attach an external match id.
	ErrAlreadyRegistered = errors.New("item already registered")
	// ErrStatusRegression signals a backwards status transition.
	ErrStatusRegression = errors.New("status transition not allowed")
)

// ValidationError wraps ErrValidation with the missing field names.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s",
		ErrValidation.Error(), strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for the given missing fields.
func NewValidationError(fields ...string) error {
	return &ValidationError{Fields: fields}
}
