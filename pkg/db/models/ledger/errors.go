package ledger

import "errors"

// Business errors surfaced to callers. Anything else coming out of the store
// is a system fault and safe to retry (credit is idempotent, redemption
// commits all-or-nothing).
var (
	// ErrInsufficientBalance is returned when a redemption amount exceeds the
	// user's current balance. Expected and recoverable; not a system fault.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned when a redemption amount is below the
	// minimum threshold or otherwise malformed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotFound is returned when a referenced user, project, or redemption
	// does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the caller is not allowed to act on
	// the resource.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyResolved is returned when a redemption transition is
	// attempted on a redemption that is no longer pending.
	ErrAlreadyResolved = errors.New("redemption already resolved")
)
