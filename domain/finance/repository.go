package finance

import "context"

// PayoutRepository is the payout request log.
//
// Save must enforce a unique (sellerRef, idempotencyKey) constraint on
// insert and return ErrDuplicatePayoutRequest when it is violated; the
// application treats that as a replay and returns the original request.
type PayoutRepository interface {
	NextIdentity() string
	Save(ctx context.Context, p *PayoutRequest) error
	FindByID(ctx context.Context, id string) (*PayoutRequest, error)

	// FindBySeller returns the seller's payout requests, newest first.
	FindBySeller(ctx context.Context, sellerRef string) ([]*PayoutRequest, error)

	// FindByIdempotencyKey resolves a replayed request. Returns
	// ErrPayoutNotFound if the key was never used.
	FindByIdempotencyKey(ctx context.Context, sellerRef, key string) (*PayoutRequest, error)
}
