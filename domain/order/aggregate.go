/*
Package order - the multi-seller order aggregate.

One checkout produces one Order shared by every seller whose product it
contains. The aggregate owns the consistency boundary: line item status
changes go through TransitionItem, which enforces ownership and the
transition table and re-derives the order-level status. The version field
is the optimistic concurrency token; it is bumped by the repository after
a successful conditional write, never by the domain methods themselves.
*/
package order

import (
	"fmt"
	"time"

	"marketplace/domain/shared"

	"github.com/google/uuid"
)

// Order is the aggregate root of a single checkout.
type Order struct {
	id              string
	buyerRef        string
	shippingAddress string
	items           []LineItem
	status          Status
	version         int
	placedAt        time.Time
	updatedAt       time.Time

	events []shared.DomainEvent
	isNew  bool
}

// LineItem is one seller's entry within an order. sellerRef, unitPrice
// and quantity are immutable once the order is placed; only status and
// deliveredAt change, and only through the aggregate root.
type LineItem struct {
	id          string
	sellerRef   string
	productRef  string
	productName string
	quantity    int
	unitPrice   shared.Money
	status      ItemStatus
	deliveredAt *time.Time
}

// ItemRequest describes one line item at order placement.
type ItemRequest struct {
	SellerRef   string
	ProductRef  string
	ProductName string
	Quantity    int
	UnitPrice   shared.Money
}

// NewOrder creates an Order aggregate. Order intake is the only caller;
// this service never creates orders over its HTTP surface.
func NewOrder(buyerRef, shippingAddress string, requests []ItemRequest) (*Order, error) {
	if buyerRef == "" {
		return nil, shared.NewValidationError("order", "buyer_ref", "buyer reference is required")
	}
	if len(requests) == 0 {
		return nil, ErrEmptyOrderItems
	}

	items := make([]LineItem, len(requests))
	for i, req := range requests {
		if req.SellerRef == "" {
			return nil, shared.NewValidationError("order", "seller_ref", "seller reference is required")
		}
		if req.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if req.UnitPrice.IsNegative() {
			return nil, ErrInvalidUnitPrice
		}

		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate line item ID: %w", err)
		}

		items[i] = LineItem{
			id:          id.String(),
			sellerRef:   req.SellerRef,
			productRef:  req.ProductRef,
			productName: req.ProductName,
			quantity:    req.Quantity,
			unitPrice:   req.UnitPrice,
			status:      ItemStatusPending,
		}
	}

	orderID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order ID: %w", err)
	}

	now := time.Now()
	o := &Order{
		id:              orderID.String(),
		buyerRef:        buyerRef,
		shippingAddress: shippingAddress,
		items:           items,
		status:          deriveStatus(items),
		version:         0,
		placedAt:        now,
		updatedAt:       now,
		events:          make([]shared.DomainEvent, 0),
		isNew:           true,
	}

	total, err := o.TotalAmount()
	if err != nil {
		return nil, err
	}
	o.events = append(o.events, NewOrderPlacedEvent(o.id, buyerRef, *total))

	return o, nil
}

// ReconstructionDTO rebuilds an Order from storage. Repository use only.
type ReconstructionDTO struct {
	ID              string
	BuyerRef        string
	ShippingAddress string
	Items           []LineItem
	Version         int
	PlacedAt        time.Time
	UpdatedAt       time.Time
}

// RebuildFromDTO reconstructs the aggregate from persisted state. The
// order-level status is re-derived rather than trusted from storage.
func RebuildFromDTO(dto ReconstructionDTO) *Order {
	return &Order{
		id:              dto.ID,
		buyerRef:        dto.BuyerRef,
		shippingAddress: dto.ShippingAddress,
		items:           dto.Items,
		status:          deriveStatus(dto.Items),
		version:         dto.Version,
		placedAt:        dto.PlacedAt,
		updatedAt:       dto.UpdatedAt,
		events:          nil,
		isNew:           false,
	}
}

// ItemReconstructionDTO rebuilds a LineItem from storage.
type ItemReconstructionDTO struct {
	ID          string
	SellerRef   string
	ProductRef  string
	ProductName string
	Quantity    int
	UnitPrice   shared.Money
	Status      ItemStatus
	DeliveredAt *time.Time
}

// RebuildItemFromDTO reconstructs a LineItem from persisted state.
func RebuildItemFromDTO(dto ItemReconstructionDTO) LineItem {
	return LineItem{
		id:          dto.ID,
		sellerRef:   dto.SellerRef,
		productRef:  dto.ProductRef,
		productName: dto.ProductName,
		quantity:    dto.Quantity,
		unitPrice:   dto.UnitPrice,
		status:      dto.Status,
		deliveredAt: dto.DeliveredAt,
	}
}

// TransitionItem applies a fulfillment state change to one line item on
// behalf of a seller. It returns changed=false for the idempotent case
// where the item already carries the target status (client retry after a
// timeout); the caller skips persistence then.
//
// Ownership is checked before transition validity so that a seller
// probing another seller's item always sees an authorization failure,
// never a state hint.
func (o *Order) TransitionItem(sellerRef, itemID string, target ItemStatus, now time.Time) (changed bool, err error) {
	idx := -1
	for i := range o.items {
		if o.items[i].id == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, NewLineItemNotFoundError(o.id, itemID)
	}

	item := &o.items[idx]
	if item.sellerRef != sellerRef {
		return false, NewNotItemOwnerError(o.id, itemID, sellerRef)
	}
	if item.status == target {
		return false, nil
	}
	if !CanTransition(item.status, target) {
		return false, NewInvalidTransitionError(item.status, target)
	}

	previous := item.status
	item.status = target
	switch target {
	case ItemStatusDelivered:
		t := now
		item.deliveredAt = &t
	case ItemStatusReturned:
		// A post-delivery return claws the item out of the settled set.
		item.deliveredAt = nil
	}

	o.status = deriveStatus(o.items)
	o.updatedAt = now

	o.events = append(o.events, NewLineItemStatusChangedEvent(o.id, itemID, sellerRef, previous, target))
	if o.status == StatusCompleted {
		o.events = append(o.events, NewOrderCompletedEvent(o.id))
	}

	return true, nil
}

// IncrementVersionForSave bumps the version after a successful
// conditional write. Called by repositories only.
func (o *Order) IncrementVersionForSave() {
	o.version++
}

// ClearNewFlag marks the aggregate as persisted. Repository use only.
func (o *Order) ClearNewFlag() {
	o.isNew = false
}

// ID returns the order identity.
func (o *Order) ID() string { return o.id }

// BuyerRef returns the opaque buyer reference.
func (o *Order) BuyerRef() string { return o.buyerRef }

// ShippingAddress returns the opaque shipping address.
func (o *Order) ShippingAddress() string { return o.shippingAddress }

// Items returns a copy of the line items.
func (o *Order) Items() []LineItem {
	items := make([]LineItem, len(o.items))
	copy(items, o.items)
	return items
}

// Status returns the derived order-level status.
func (o *Order) Status() Status { return o.status }

// Version returns the optimistic concurrency token.
func (o *Order) Version() int { return o.version }

// PlacedAt returns the immutable placement time.
func (o *Order) PlacedAt() time.Time { return o.placedAt }

// UpdatedAt returns the last mutation time.
func (o *Order) UpdatedAt() time.Time { return o.updatedAt }

// IsNew reports whether the aggregate has never been persisted.
func (o *Order) IsNew() bool { return o.isNew }

// TotalAmount is the full order value: the sum over all sellers' line
// items. Derived on read; status changes can never alter it.
func (o *Order) TotalAmount() (*shared.Money, error) {
	return sumSubtotals(o.items)
}

// HasSellerItems reports whether any line item belongs to the seller.
func (o *Order) HasSellerItems(sellerRef string) bool {
	for i := range o.items {
		if o.items[i].sellerRef == sellerRef {
			return true
		}
	}
	return false
}

// PullEvents returns recorded domain events and clears the list.
func (o *Order) PullEvents() []shared.DomainEvent {
	events := make([]shared.DomainEvent, len(o.events))
	copy(events, o.events)
	o.events = o.events[:0]
	return events
}

func sumSubtotals(items []LineItem) (*shared.Money, error) {
	total := shared.NewMoney(0, defaultCurrencyOf(items))
	for i := range items {
		sub, err := items[i].Subtotal()
		if err != nil {
			return nil, err
		}
		total, err = total.Add(*sub)
		if err != nil {
			return nil, err
		}
	}
	return total, nil
}

func defaultCurrencyOf(items []LineItem) string {
	if len(items) > 0 {
		return items[0].unitPrice.Currency()
	}
	return ""
}

// LineItem getters - read-only access from outside the aggregate.

func (item LineItem) ID() string              { return item.id }
func (item LineItem) SellerRef() string       { return item.sellerRef }
func (item LineItem) ProductRef() string      { return item.productRef }
func (item LineItem) ProductName() string     { return item.productName }
func (item LineItem) Quantity() int           { return item.quantity }
func (item LineItem) UnitPrice() shared.Money { return item.unitPrice }
func (item LineItem) Status() ItemStatus      { return item.status }

// DeliveredAt returns the settlement timestamp, nil unless Delivered.
func (item LineItem) DeliveredAt() *time.Time {
	if item.deliveredAt == nil {
		return nil
	}
	t := *item.deliveredAt
	return &t
}

// Subtotal is unitPrice * quantity, the item's contribution to the order
// total. Constant once the order is placed.
func (item LineItem) Subtotal() (*shared.Money, error) {
	return item.unitPrice.Multiply(item.quantity)
}

var _ shared.AggregateRoot = (*Order)(nil)
