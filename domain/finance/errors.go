/*
Package finance - earnings derivation and payout eligibility.

Earnings are never stored: the ledger is computed on read from delivered
line items, so there is no persistent balance counter that could drift.
The only persisted aggregate here is the PayoutRequest log, which the
eligibility engine checks balances against atomically.
*/
package finance

import (
	"errors"
	"strconv"

	"marketplace/domain/shared"
)

var (
	// ErrInvalidAmount - a payout amount must be strictly positive.
	ErrInvalidAmount = errors.New("payout amount must be positive")

	// ErrInsufficientBalance - the requested amount exceeds the seller's
	// available balance. The amount is never clamped.
	ErrInsufficientBalance = errors.New("insufficient available balance")

	// ErrPayoutNotFound - the payout request does not exist.
	ErrPayoutNotFound = errors.New("payout request not found")

	// ErrNotPayoutOwner - a seller addressed another seller's payout.
	ErrNotPayoutOwner = errors.New("payout request belongs to another seller")

	// ErrInvalidPayoutTransition - the payout status change is not allowed.
	ErrInvalidPayoutTransition = errors.New("invalid payout status transition")

	// ErrDuplicatePayoutRequest - the idempotency key was already used by
	// this seller. The caller receives the original request instead.
	ErrDuplicatePayoutRequest = errors.New("duplicate payout request")

	// ErrMissingIdempotencyKey - payout creation requires a client key.
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")

	// ErrInvalidCommissionRate - the commission rate is outside [0, 10000]
	// basis points.
	ErrInvalidCommissionRate = errors.New("commission rate must be between 0 and 10000 basis points")

	// ErrConcurrentModification - optimistic lock conflict on a payout.
	ErrConcurrentModification = errors.New("payout request was modified by another transaction, please retry")
)

// NewInsufficientBalanceError creates a balance rejection with both sides
// of the comparison in the message.
func NewInsufficientBalanceError(sellerRef string, requested, available shared.Money) error {
	return &financeDomainError{
		sentinel: ErrInsufficientBalance,
		entity:   "payout_request",
		field:    "amount",
		message: "seller " + sellerRef + " requested " + strconv.FormatInt(requested.Amount(), 10) +
			" but only " + strconv.FormatInt(available.Amount(), 10) + " is available",
		stack: shared.CaptureStack(3),
	}
}

// NewPayoutNotFoundError creates a payout-not-found error with stack.
func NewPayoutNotFoundError(payoutID string) error {
	return &financeDomainError{
		sentinel: ErrPayoutNotFound,
		entity:   "payout_request",
		message:  "payout request not found: " + payoutID,
		stack:    shared.CaptureStack(3),
	}
}

// NewNotPayoutOwnerError creates an ownership violation error with stack.
func NewNotPayoutOwnerError(payoutID, sellerRef string) error {
	return &financeDomainError{
		sentinel: ErrNotPayoutOwner,
		entity:   "payout_request",
		message:  "seller " + sellerRef + " does not own payout request " + payoutID,
		stack:    shared.CaptureStack(3),
	}
}

// NewInvalidPayoutTransitionError creates an illegal-transition error.
func NewInvalidPayoutTransitionError(current, target PayoutStatus) error {
	return &financeDomainError{
		sentinel: ErrInvalidPayoutTransition,
		entity:   "payout_request",
		field:    "status",
		message:  "cannot transition payout from " + string(current) + " to " + string(target),
		stack:    shared.CaptureStack(3),
	}
}

type financeDomainError struct {
	sentinel error
	entity   string
	field    string
	message  string
	stack    []uintptr
}

func (e *financeDomainError) Error() string {
	return e.message
}

func (e *financeDomainError) Unwrap() error {
	return e.sentinel
}

func (e *financeDomainError) Stack() []string {
	if len(e.stack) == 0 {
		return nil
	}
	return shared.FormatStack(e.stack)
}
