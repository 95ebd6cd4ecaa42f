package memory

import (
	"context"
	"sync"

	"marketplace/domain/seller"
)

type SellerRepository struct {
	mu       sync.RWMutex
	profiles map[string]*seller.Profile
}

func NewSellerRepository() *SellerRepository {
	return &SellerRepository{
		profiles: make(map[string]*seller.Profile),
	}
}

func snapshotProfile(p *seller.Profile) *seller.Profile {
	return seller.RebuildProfileFromDTO(seller.ProfileReconstructionDTO{
		SellerRef:   p.SellerRef(),
		BankDetails: p.BankDetails(),
		Version:     p.Version(),
		UpdatedAt:   p.UpdatedAt(),
	})
}

func (r *SellerRepository) Save(ctx context.Context, p *seller.Profile) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.profiles[p.SellerRef()]
	if p.IsNew() {
		if exists {
			return seller.ErrConcurrentModification
		}
		r.profiles[p.SellerRef()] = snapshotProfile(p)
		p.ClearNewFlag()
		return nil
	}

	if !exists {
		return seller.ErrProfileNotFound
	}
	if stored.Version() != p.Version() {
		return seller.ErrConcurrentModification
	}

	next := snapshotProfile(p)
	next.IncrementVersionForSave()
	r.profiles[p.SellerRef()] = next
	p.IncrementVersionForSave()
	return nil
}

func (r *SellerRepository) FindBySellerRef(ctx context.Context, sellerRef string) (*seller.Profile, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.profiles[sellerRef]
	if !exists {
		return nil, seller.ErrProfileNotFound
	}
	return snapshotProfile(stored), nil
}

var _ seller.Repository = (*SellerRepository)(nil)
