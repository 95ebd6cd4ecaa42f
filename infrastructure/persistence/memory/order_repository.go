// Package memory holds in-memory repository implementations with the
// same optimistic concurrency semantics as the MySQL ones. They back the
// memory database mode and the application-layer tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"marketplace/domain/order"

	"github.com/google/uuid"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*order.Order),
	}
}

func (r *OrderRepository) NextIdentity() string {
	return "order-" + uuid.New().String()
}

// snapshot deep-copies an aggregate so callers can never mutate stored
// state without going through Save.
func snapshotOrder(o *order.Order) *order.Order {
	return order.RebuildFromDTO(order.ReconstructionDTO{
		ID:              o.ID(),
		BuyerRef:        o.BuyerRef(),
		ShippingAddress: o.ShippingAddress(),
		Items:           o.Items(),
		Version:         o.Version(),
		PlacedAt:        o.PlacedAt(),
		UpdatedAt:       o.UpdatedAt(),
	})
}

// Save applies the same version discipline as the SQL repository: an
// update only lands if the caller's aggregate carries the stored version.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.orders[o.ID()]
	if o.IsNew() {
		if exists {
			return order.NewConcurrentModificationError(o.ID())
		}
		r.orders[o.ID()] = snapshotOrder(o)
		o.ClearNewFlag()
		return nil
	}

	if !exists {
		return order.NewOrderNotFoundError(o.ID())
	}
	if stored.Version() != o.Version() {
		return order.NewConcurrentModificationError(o.ID())
	}

	next := snapshotOrder(o)
	next.IncrementVersionForSave()
	r.orders[o.ID()] = next
	o.IncrementVersionForSave()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.orders[id]
	if !exists {
		return nil, order.NewOrderNotFoundError(id)
	}
	return snapshotOrder(stored), nil
}

func (r *OrderRepository) FindBySeller(ctx context.Context, sellerRef string, filter order.ListFilter) ([]*order.Order, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	spec := order.SellerListSpecification(sellerRef, filter)
	var result []*order.Order
	for _, stored := range r.orders {
		if spec.IsSatisfiedBy(ctx, stored) {
			result = append(result, snapshotOrder(stored))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PlacedAt().After(result[j].PlacedAt())
	})
	return result, nil
}

var _ order.Repository = (*OrderRepository)(nil)
