package order

import (
	"context"
	"time"
)

// ListFilter narrows a seller's order listing. Zero time bounds mean
// unbounded on that side; an empty Status means no status filter. Time
// bounds apply to placedAt, half-open [From, To).
type ListFilter struct {
	From   time.Time
	To     time.Time
	Status ItemStatus
}

// Repository is the order aggregate store.
//
// Save uses optimistic concurrency: for an existing aggregate it writes
// conditionally on the stored version and returns
// ErrConcurrentModification when another transaction got there first.
// After a successful write it bumps the aggregate's version in memory.
type Repository interface {
	NextIdentity() string
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindBySeller returns orders containing at least one of the
	// seller's line items, newest placedAt first. The status filter
	// matches an order when any of the seller's items carries that
	// status.
	FindBySeller(ctx context.Context, sellerRef string, filter ListFilter) ([]*Order, error)
}
