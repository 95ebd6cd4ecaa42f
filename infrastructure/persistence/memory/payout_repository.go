package memory

import (
	"context"
	"sort"
	"sync"

	"marketplace/domain/finance"

	"github.com/google/uuid"
)

type PayoutRepository struct {
	mu      sync.RWMutex
	payouts map[string]*finance.PayoutRequest
	// byIdemKey mirrors the SQL unique (seller_ref, idempotency_key)
	// index; keys are sellerRef + "\x00" + idempotencyKey.
	byIdemKey map[string]string
}

func NewPayoutRepository() *PayoutRepository {
	return &PayoutRepository{
		payouts:   make(map[string]*finance.PayoutRequest),
		byIdemKey: make(map[string]string),
	}
}

func (r *PayoutRepository) NextIdentity() string {
	return "payout-" + uuid.New().String()
}

func idemKey(sellerRef, key string) string {
	return sellerRef + "\x00" + key
}

func snapshotPayout(p *finance.PayoutRequest) *finance.PayoutRequest {
	return finance.RebuildPayoutFromDTO(finance.PayoutReconstructionDTO{
		ID:             p.ID(),
		SellerRef:      p.SellerRef(),
		Amount:         p.Amount(),
		Status:         p.Status(),
		IdempotencyKey: p.IdempotencyKey(),
		RequestedAt:    p.RequestedAt(),
		UpdatedAt:      p.UpdatedAt(),
		Version:        p.Version(),
	})
}

func (r *PayoutRepository) Save(ctx context.Context, p *finance.PayoutRequest) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p.IsNew() {
		if _, taken := r.byIdemKey[idemKey(p.SellerRef(), p.IdempotencyKey())]; taken {
			return finance.ErrDuplicatePayoutRequest
		}
		r.payouts[p.ID()] = snapshotPayout(p)
		r.byIdemKey[idemKey(p.SellerRef(), p.IdempotencyKey())] = p.ID()
		p.ClearNewFlag()
		return nil
	}

	stored, exists := r.payouts[p.ID()]
	if !exists {
		return finance.NewPayoutNotFoundError(p.ID())
	}
	if stored.Version() != p.Version() {
		return finance.ErrConcurrentModification
	}

	next := snapshotPayout(p)
	next.IncrementVersionForSave()
	r.payouts[p.ID()] = next
	p.IncrementVersionForSave()
	return nil
}

func (r *PayoutRepository) FindByID(ctx context.Context, id string) (*finance.PayoutRequest, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.payouts[id]
	if !exists {
		return nil, finance.NewPayoutNotFoundError(id)
	}
	return snapshotPayout(stored), nil
}

func (r *PayoutRepository) FindBySeller(ctx context.Context, sellerRef string) ([]*finance.PayoutRequest, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*finance.PayoutRequest
	for _, stored := range r.payouts {
		if stored.SellerRef() == sellerRef {
			result = append(result, snapshotPayout(stored))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RequestedAt().After(result[j].RequestedAt())
	})
	return result, nil
}

func (r *PayoutRepository) FindByIdempotencyKey(ctx context.Context, sellerRef, key string) (*finance.PayoutRequest, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byIdemKey[idemKey(sellerRef, key)]
	if !exists {
		return nil, finance.ErrPayoutNotFound
	}
	return snapshotPayout(r.payouts[id]), nil
}

var _ finance.PayoutRepository = (*PayoutRepository)(nil)
