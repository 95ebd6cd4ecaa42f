package seller

import "context"

// Repository stores seller settlement profiles keyed by sellerRef.
// Save follows the same optimistic concurrency contract as the other
// repositories: conditional on version, ErrConcurrentModification on a
// lost race.
type Repository interface {
	Save(ctx context.Context, p *Profile) error
	FindBySellerRef(ctx context.Context, sellerRef string) (*Profile, error)
}
