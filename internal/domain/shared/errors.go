// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
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
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")

	// Payment errors
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Capacity errors
	ErrNoCapacity = errors.New("no capacity left")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "course", "enrollment", "student"
	Op      string // Operation that failed, e.g., "Purchase", "Create"
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

// Course domain errors
var (
	ErrCourseNotFound    = NewDomainError("course", "Find", ErrNotFound, "course not found")
	ErrLessonNotFound    = NewDomainError("course", "FindLesson", ErrNotFound, "lesson not found")
	ErrGroupNotFound     = NewDomainError("course", "FindGroup", ErrNotFound, "group not found")
	ErrCourseUnavailable = NewDomainError("course", "CheckAvailability", ErrUnavailable, "course is not available for purchase")
	ErrInvalidPrice      = NewDomainError("course", "Validate", ErrNegativeValue, "price cannot be negative")
)

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentAlreadyExists = NewDomainError("student", "Create", ErrAlreadyExists, "student already exists")
	ErrBalanceNotFound      = NewDomainError("student", "FindBalance", ErrNotFound, "balance not found")
	ErrInsufficientBonuses  = NewDomainError("student", "Debit", ErrInsufficientFunds, "not enough bonuses on the balance")
)

// Enrollment domain errors
var (
	ErrAlreadyEnrolled   = NewDomainError("enrollment", "Purchase", ErrAlreadyExists, "the course is already bought")
	ErrNoVacancy         = NewDomainError("enrollment", "Purchase", ErrNoCapacity, "there are no vacancies in the course groups")
	ErrCapacityExceeded  = NewDomainError("enrollment", "Allocate", ErrNoCapacity, "all groups are full")
	ErrTransientConflict = NewDomainError("enrollment", "Purchase", ErrConcurrentModification, "purchase conflicted with a concurrent request")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error maps to a business conflict
// (duplicate purchase, unavailable course, exhausted capacity).
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrNoCapacity)
}

// IsInsufficientFunds checks if the error is a payment error.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
