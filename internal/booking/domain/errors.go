package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a job, user, or translator cannot be found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a requested status change
	// fails its guard. The job is left untouched.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyBooked is returned when the translator holds a
	// conflicting active assignment at the same due time. Callers
	// should treat this as a routine outcome, not a fault.
	ErrAlreadyBooked = errors.New("translator already booked at that time")

	// ErrNotAcceptable is returned when a job can no longer be
	// accepted, typically because another translator won the race.
	ErrNotAcceptable = errors.New("job is not open for acceptance")

	// ErrValidationFailed is returned when a required field is missing
	// for the requested operation.
	ErrValidationFailed = errors.New("validation failed")

	// ErrDeliveryFailed marks a channel adapter failure. It is logged
	// and never rolls back an already-committed transition.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// ValidationError carries the name of the offending field so the API
// layer can point the user at it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a field-level validation failure.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
