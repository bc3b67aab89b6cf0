package services

import "errors"

var (
	// ErrNotFound is returned when a quest, user, item or transaction is missing
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation is not legal in the
	// entity's current status (e.g. claiming a CLAIMED quest)
	ErrInvalidState = errors.New("invalid state")

	// ErrForbidden is returned when the caller lacks ownership or role
	ErrForbidden = errors.New("forbidden")

	// ErrInsufficientFunds is returned when a ledger debit exceeds the balance
	ErrInsufficientFunds = errors.New("insufficient bounty balance")

	// ErrConfiguration is returned for bad job registrations (duplicate
	// name, unparseable schedule)
	ErrConfiguration = errors.New("configuration error")

	// ErrStoreUnavailable wraps transient database failures
	ErrStoreUnavailable = errors.New("store unavailable")
)
