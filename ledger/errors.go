package ledger

import "errors"

var (
	// ErrInsufficientCredits is returned when a debit would take a balance
	// below zero.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrNotFound is returned when the referenced user, package, penalty or
	// payment does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned when the acting user lacks the required
	// role for the operation.
	ErrUnauthorized = errors.New("actor not authorized")

	// ErrPenaltyResolved is returned when resolving a penalty that has
	// already been resolved.
	ErrPenaltyResolved = errors.New("penalty already resolved")

	// ErrDuplicateProcessing is returned when a payment callback replays a
	// reference that was already handled.
	ErrDuplicateProcessing = errors.New("payment already processed")

	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a concurrent update raced a guarded
	// balance write. Callers retry the whole unit of work.
	ErrConflict = errors.New("concurrent update conflict")
)
