package seller

import "errors"

var (
	// ErrProfileNotFound - no settlement profile exists for the seller.
	ErrProfileNotFound = errors.New("seller profile not found")

	// ErrConcurrentModification - optimistic lock conflict on the profile.
	ErrConcurrentModification = errors.New("seller profile was modified by another transaction, please retry")
)
