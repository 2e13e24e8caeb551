package domain

import (
	"errors"
	"strings"
)

// Sentinel errors shared across entities. Services return these unwrapped (or
// wrapped with %w) so the delivery layer can map them to HTTP statuses.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	// ErrSlugTaken is returned by repositories when an insert or update hits
	// the unique slug index. Slug generation treats it as a lost race and
	// retries with a fresh candidate.
	ErrSlugTaken = errors.New("slug already taken")
)

// ValidationError reports one or more invalid or missing input fields.
// It is always surfaced before any persistence happens.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// NewValidationError returns a ValidationError with the given field messages.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}
