package order

import (
	"time"

	"marketplace/domain/shared"
)

// SellerView is the read-only, seller-scoped projection of an order. It
// carries only the requesting seller's line items and their total; other
// sellers' items and pricing never cross this boundary. The shipping
// address is included because the seller fulfils against it.
//
// An order containing none of the seller's items projects to an empty
// view, not an error. Callers that need to distinguish "empty" from
// "absent" check IsEmpty after a successful lookup.
type SellerView struct {
	OrderID         string
	SellerRef       string
	Status          Status
	ShippingAddress string
	PlacedAt        time.Time
	UpdatedAt       time.Time
	Version         int
	Items           []LineItem
}

// ProjectForSeller derives the seller-scoped view from the aggregate.
// It is a pure function of the order state and is safe to call with
// arbitrary concurrency.
func (o *Order) ProjectForSeller(sellerRef string) SellerView {
	var items []LineItem
	for i := range o.items {
		if o.items[i].sellerRef == sellerRef {
			items = append(items, o.items[i])
		}
	}
	return SellerView{
		OrderID:         o.id,
		SellerRef:       sellerRef,
		Status:          o.status,
		ShippingAddress: o.shippingAddress,
		PlacedAt:        o.placedAt,
		UpdatedAt:       o.updatedAt,
		Version:         o.version,
		Items:           items,
	}
}

// IsEmpty reports whether the order holds no items for this seller.
func (v SellerView) IsEmpty() bool {
	return len(v.Items) == 0
}

// SellerTotal is the sum of the seller's item subtotals. Zero money in
// the view's currency for an empty view.
func (v SellerView) SellerTotal() (*shared.Money, error) {
	return sumSubtotals(v.Items)
}
