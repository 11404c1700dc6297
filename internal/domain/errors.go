package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is returned when a referenced event, registration, order,
	// order line, or payment method does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when the request is structurally invalid
	// (unknown ids, out-of-range quantity or price, bad enum values).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned on an illegal order status move.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrOrderNotEditable is returned when lines are mutated on an order that
	// is invoiced or cancelled.
	ErrOrderNotEditable = errors.New("order is not editable")

	// ErrDuplicateRegistration is returned when a registration already exists
	// for the same user and event. Callers route this to the duplicate
	// notification path instead of surfacing it as a failure.
	ErrDuplicateRegistration = errors.New("registration already exists for user and event")

	// ErrDuplicateEmail is returned when creating a user with an email that is
	// already taken.
	ErrDuplicateEmail = errors.New("email already in use")
)
