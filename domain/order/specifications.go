package order

import (
	"context"

	"marketplace/domain/shared"
)

// BelongsToSellerSpecification matches orders that contain at least one
// line item owned by the seller.
type BelongsToSellerSpecification struct {
	SellerRef string
}

func (spec BelongsToSellerSpecification) IsSatisfiedBy(_ context.Context, o *Order) bool {
	return o.HasSellerItems(spec.SellerRef)
}

// PlacedWithinSpecification matches orders placed inside the half-open
// window [From, To). A zero bound is unbounded on that side.
type PlacedWithinSpecification struct {
	Filter ListFilter
}

func (spec PlacedWithinSpecification) IsSatisfiedBy(_ context.Context, o *Order) bool {
	placedAt := o.PlacedAt()
	if !spec.Filter.From.IsZero() && placedAt.Before(spec.Filter.From) {
		return false
	}
	if !spec.Filter.To.IsZero() && !placedAt.Before(spec.Filter.To) {
		return false
	}
	return true
}

// SellerItemStatusSpecification matches orders where at least one of the
// seller's line items carries the given status.
type SellerItemStatusSpecification struct {
	SellerRef string
	Status    ItemStatus
}

func (spec SellerItemStatusSpecification) IsSatisfiedBy(_ context.Context, o *Order) bool {
	for _, item := range o.Items() {
		if item.SellerRef() == spec.SellerRef && item.Status() == spec.Status {
			return true
		}
	}
	return false
}

// SellerListSpecification builds the composite filter used by the
// in-memory repository for FindBySeller.
func SellerListSpecification(sellerRef string, filter ListFilter) shared.Specification[*Order] {
	var spec shared.Specification[*Order] = BelongsToSellerSpecification{SellerRef: sellerRef}
	if !filter.From.IsZero() || !filter.To.IsZero() {
		spec = shared.And(spec, PlacedWithinSpecification{Filter: filter})
	}
	if filter.Status != "" {
		spec = shared.And(spec, SellerItemStatusSpecification{SellerRef: sellerRef, Status: filter.Status})
	}
	return spec
}
