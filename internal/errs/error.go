package errs

import (
	"errors"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist or a
	// state transition targets an entity that already left the state
	// (returning a returned loan, cancelling an inactive reservation).
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means there is no free copy to satisfy a checkout or a
	// reservation.
	ErrUnavailable = errors.New("no copies available")

	// ErrBusy is a contention timeout on the per-book guard, safe to retry.
	ErrBusy = errors.New("busy, retry later")

	// ErrConflict covers uniqueness conflicts such as a duplicate active
	// reservation or a taken username.
	ErrConflict = errors.New("already exists")

	// ErrInvariant signals that an operation would corrupt the availability
	// accounting. It is a bug indicator, never silently corrected.
	ErrInvariant = errors.New("availability invariant violated")

	ErrInvalidCredentials = errors.New("invalid credentials")
)
