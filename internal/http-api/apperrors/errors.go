package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the permission evaluator, services and handlers.
// ErrNotAuthenticated maps to 401, ErrForbidden to 403.
var (
	ErrNotAuthenticated = errors.New("authentication required")
	ErrForbidden        = errors.New("insufficient permissions")
)

// ValidationError carries field-keyed messages and is rendered verbatim as the
// error response body. A duplicate unique key, an out-of-range value and an
// attempted self role-change all surface through this type.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidation builds a single-field validation error.
func NewValidation(field, message string) ValidationError {
	return ValidationError{field: message}
}

// NotFoundError names the resource that could not be resolved.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// NewNotFound builds a NotFoundError for the given resource name.
func NewNotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
