/*
Package order - order subdomain errors.

Design:
1. Sentinel errors support errors.Is() classification.
2. Constructors capture the stack at the creation point.
3. No HTTP status codes or other transport concepts here.
*/
package order

import (
	"errors"
	"strconv"

	"marketplace/domain/shared"
)

var (
	// ErrOrderNotFound - the order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrLineItemNotFound - the line item does not exist on the order.
	ErrLineItemNotFound = errors.New("line item not found")

	// ErrNotItemOwner - a seller addressed another seller's line item.
	ErrNotItemOwner = errors.New("line item belongs to another seller")

	// ErrInvalidTransition - the requested item status is not reachable
	// from the current one.
	ErrInvalidTransition = errors.New("invalid item status transition")

	// ErrConcurrentModification - optimistic lock conflict. The order was
	// modified by another transaction; the caller should re-read and retry.
	ErrConcurrentModification = errors.New("order was modified by another transaction, please retry")

	// ErrVersionMismatch - the caller-supplied expected version is stale.
	ErrVersionMismatch = errors.New("order version mismatch")

	// ErrEmptyOrderItems - an order must carry at least one line item.
	ErrEmptyOrderItems = errors.New("order must have at least one line item")

	// ErrInvalidQuantity - line item quantity must be positive.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidUnitPrice - line item unit price must not be negative.
	ErrInvalidUnitPrice = errors.New("unit price must not be negative")
)

// NewOrderNotFoundError creates an order-not-found error with stack.
func NewOrderNotFoundError(orderID string) error {
	return &orderDomainError{
		sentinel: ErrOrderNotFound,
		entity:   "order",
		message:  "order not found: " + orderID,
		stack:    shared.CaptureStack(3),
	}
}

// NewLineItemNotFoundError creates a line-item-not-found error with stack.
func NewLineItemNotFoundError(orderID, itemID string) error {
	return &orderDomainError{
		sentinel: ErrLineItemNotFound,
		entity:   "order",
		field:    "line_item",
		message:  "line item " + itemID + " not found on order " + orderID,
		stack:    shared.CaptureStack(3),
	}
}

// NewNotItemOwnerError creates an ownership violation error with stack.
// The API layer logs these as security-relevant events.
func NewNotItemOwnerError(orderID, itemID, sellerRef string) error {
	return &orderDomainError{
		sentinel: ErrNotItemOwner,
		entity:   "order",
		field:    "line_item",
		message:  "seller " + sellerRef + " does not own line item " + itemID + " on order " + orderID,
		stack:    shared.CaptureStack(3),
	}
}

// NewInvalidTransitionError creates an illegal-transition error with stack.
func NewInvalidTransitionError(current, target ItemStatus) error {
	return &orderDomainError{
		sentinel: ErrInvalidTransition,
		entity:   "order",
		field:    "item_status",
		message:  "cannot transition line item from " + string(current) + " to " + string(target),
		stack:    shared.CaptureStack(3),
	}
}

// NewConcurrentModificationError creates an optimistic lock conflict error.
func NewConcurrentModificationError(orderID string) error {
	return &orderDomainError{
		sentinel: ErrConcurrentModification,
		entity:   "order",
		message:  "order " + orderID + " was modified by another transaction, please retry",
		stack:    shared.CaptureStack(3),
	}
}

// NewVersionMismatchError creates a stale-expected-version error.
func NewVersionMismatchError(orderID string, expected, actual int) error {
	return &orderDomainError{
		sentinel: ErrVersionMismatch,
		entity:   "order",
		field:    "version",
		message:  "order " + orderID + " version mismatch: expected " + strconv.Itoa(expected) + ", stored " + strconv.Itoa(actual),
		stack:    shared.CaptureStack(3),
	}
}

// orderDomainError implements error, Unwrap and shared.Stacker.
type orderDomainError struct {
	sentinel error
	entity   string
	field    string
	message  string
	stack    []uintptr
}

func (e *orderDomainError) Error() string {
	return e.message
}

func (e *orderDomainError) Unwrap() error {
	return e.sentinel
}

func (e *orderDomainError) Stack() []string {
	if len(e.stack) == 0 {
		return nil
	}
	return shared.FormatStack(e.stack)
}
