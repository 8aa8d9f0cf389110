package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Expression editor errors. The unknown-name and malformed-input errors are
// validation errors, so errors.Is(err, ErrValidation) holds for them.
var (
	ErrUnknownOperator = fmt.Errorf("%w: unknown operator", ErrValidation)
	ErrUnknownFunction = fmt.Errorf("%w: unknown function", ErrValidation)
	ErrUnknownVariable = fmt.Errorf("%w: unknown variable", ErrValidation)
	ErrMalformedPath   = fmt.Errorf("%w: malformed child path", ErrValidation)
	ErrInvalidBlock    = fmt.Errorf("%w: invalid block", ErrValidation)
	ErrNotReady        = errors.New("math library not loaded")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (workspace)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
