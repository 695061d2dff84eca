// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrLocked       = errors.New("entity is locked")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "catalog", "result", "progress", "analytics"
	Op      string // Operation that failed, e.g., "Record", "Aggregate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Catalog domain errors
var (
	ErrModuleNotFound = NewDomainError("catalog", "Find", ErrNotFound, "module not found")
	ErrTopicNotFound  = NewDomainError("catalog", "Find", ErrNotFound, "topic not found")
	ErrInvalidModule  = NewDomainError("catalog", "Validate", ErrInvalidEntity, "invalid module")
	ErrInvalidTopic   = NewDomainError("catalog", "Validate", ErrInvalidEntity, "invalid topic")
)

// Result domain errors
var (
	ErrResultNotFound   = NewDomainError("result", "Find", ErrNotFound, "test result not found")
	ErrInvalidResult    = NewDomainError("result", "Validate", ErrInvalidEntity, "invalid test result")
	ErrInvalidTestType  = NewDomainError("result", "Validate", ErrInvalidInput, "unknown test type")
	ErrScoreOutOfRange  = NewDomainError("result", "Validate", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrMissingReference = NewDomainError("result", "Validate", ErrInvalidInput, "result references no module or topic")
)

// Progress domain errors
var (
	ErrUserNotFound         = NewDomainError("progress", "Find", ErrNotFound, "user not found")
	ErrInvalidLearningLevel = NewDomainError("progress", "Validate", ErrInvalidInput, "unknown learning level")
)

// IsNotFound reports whether err belongs to the not-found class.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrValueOutOfRange)
}
