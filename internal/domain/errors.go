package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during generation operations.
var (
	// ErrNoProvider indicates a generation call was made before a
	// provider client was configured. This is a precondition violation
	// and fails fast instead of being absorbed into a candidate.
	ErrNoProvider = errors.New("no generation provider configured")

	// ErrInvalidRequest indicates a generation request failed validation.
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrBudgetExceeded indicates the batch budget (calls or tokens) was
	// exhausted before all requested candidates were generated.
	ErrBudgetExceeded = errors.New("generation budget exceeded")

	// ErrRecordNotFound indicates a candidate record lookup missed.
	ErrRecordNotFound = errors.New("candidate record not found")
)

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
