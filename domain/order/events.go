package order

import (
	"time"

	"marketplace/domain/shared"
)

const (
	OrderPlacedEventName           = "order.placed"
	LineItemStatusChangedEventName = "order.line_item_status_changed"
	OrderCompletedEventName        = "order.completed"
)

// OrderPlacedEvent records that a new order entered the system.
type OrderPlacedEvent struct {
	OrderID     string
	BuyerRef    string
	TotalAmount shared.Money
	occurredOn  time.Time
}

func NewOrderPlacedEvent(orderID, buyerRef string, total shared.Money) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:     orderID,
		BuyerRef:    buyerRef,
		TotalAmount: total,
		occurredOn:  time.Now(),
	}
}

func (e OrderPlacedEvent) EventName() string      { return OrderPlacedEventName }
func (e OrderPlacedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e OrderPlacedEvent) GetAggregateID() string { return e.OrderID }

// LineItemStatusChangedEvent records a fulfillment transition on one
// line item. PreviousStatus and NewStatus are both carried so handlers
// can react to settlement (entering or leaving Delivered) without
// re-reading the order.
type LineItemStatusChangedEvent struct {
	OrderID        string
	LineItemID     string
	SellerRef      string
	PreviousStatus ItemStatus
	NewStatus      ItemStatus
	occurredOn     time.Time
}

func NewLineItemStatusChangedEvent(orderID, itemID, sellerRef string, previous, next ItemStatus) LineItemStatusChangedEvent {
	return LineItemStatusChangedEvent{
		OrderID:        orderID,
		LineItemID:     itemID,
		SellerRef:      sellerRef,
		PreviousStatus: previous,
		NewStatus:      next,
		occurredOn:     time.Now(),
	}
}

func (e LineItemStatusChangedEvent) EventName() string      { return LineItemStatusChangedEventName }
func (e LineItemStatusChangedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e LineItemStatusChangedEvent) GetAggregateID() string { return e.OrderID }

// OrderCompletedEvent records that every line item reached Delivered.
type OrderCompletedEvent struct {
	OrderID    string
	occurredOn time.Time
}

func NewOrderCompletedEvent(orderID string) OrderCompletedEvent {
	return OrderCompletedEvent{
		OrderID:    orderID,
		occurredOn: time.Now(),
	}
}

func (e OrderCompletedEvent) EventName() string      { return OrderCompletedEventName }
func (e OrderCompletedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e OrderCompletedEvent) GetAggregateID() string { return e.OrderID }
