package po

import (
	"encoding/json"
	"time"

	"marketplace/domain/finance"
	"marketplace/domain/order"
	"marketplace/domain/shared"

	"github.com/google/uuid"
)

// OutboxEventPO Outbox event persistence object.
// Implements the transactional outbox pattern: events are written here in
// the same transaction as the aggregate change and published afterwards.
type OutboxEventPO struct {
	ID          string    `gorm:"primaryKey;size:64"`
	AggregateID string    `gorm:"size:64;index;not null"`
	EventType   string    `gorm:"size:100;index;not null"`
	Payload     string    `gorm:"type:json;not null"`
	Status      string    `gorm:"size:20;default:PENDING;not null"` // PENDING, PROCESSING, PUBLISHED, FAILED
	RetryCount  int       `gorm:"default:0;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (OutboxEventPO) TableName() string {
	return "outbox_events"
}

// EventStatus Outbox event status enum.
type EventStatus string

const (
	EventStatusPending    EventStatus = "PENDING"
	EventStatusProcessing EventStatus = "PROCESSING"
	EventStatusPublished  EventStatus = "PUBLISHED"
	EventStatusFailed     EventStatus = "FAILED"
)

// FromDomainEvent Convert a domain event to an outbox persistence object.
func FromDomainEvent(event shared.DomainEvent) (*OutboxEventPO, error) {
	payload, err := serializeEventToJSON(event)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &OutboxEventPO{
		ID:          uuid.New().String(),
		AggregateID: event.GetAggregateID(),
		EventType:   event.EventName(),
		Payload:     payload,
		Status:      string(EventStatusPending),
		RetryCount:  0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// serializeEventToJSON flattens the event into a JSON envelope. Money
// values are spread into amount/currency pairs of minor units.
func serializeEventToJSON(event shared.DomainEvent) (string, error) {
	eventData := map[string]interface{}{
		"event_name":   event.EventName(),
		"aggregate_id": event.GetAggregateID(),
		"occurred_on":  event.OccurredOn(),
	}

	switch e := event.(type) {
	case order.OrderPlacedEvent:
		eventData["order_id"] = e.OrderID
		eventData["buyer_ref"] = e.BuyerRef
		eventData["total_amount"] = e.TotalAmount.Amount()
		eventData["total_currency"] = e.TotalAmount.Currency()
	case order.LineItemStatusChangedEvent:
		eventData["order_id"] = e.OrderID
		eventData["line_item_id"] = e.LineItemID
		eventData["seller_ref"] = e.SellerRef
		eventData["previous_status"] = string(e.PreviousStatus)
		eventData["new_status"] = string(e.NewStatus)
	case order.OrderCompletedEvent:
		eventData["order_id"] = e.OrderID
	case finance.PayoutRequestedEvent:
		eventData["payout_id"] = e.PayoutID
		eventData["seller_ref"] = e.SellerRef
		eventData["amount"] = e.Amount.Amount()
		eventData["currency"] = e.Amount.Currency()
	case finance.PayoutStatusChangedEvent:
		eventData["payout_id"] = e.PayoutID
		eventData["seller_ref"] = e.SellerRef
		eventData["previous_status"] = string(e.PreviousStatus)
		eventData["new_status"] = string(e.NewStatus)
	}

	data, err := json.Marshal(eventData)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ToEventData Extract event data from the outbox PO (debugging/testing).
func (po *OutboxEventPO) ToEventData() (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(po.Payload), &data); err != nil {
		return nil, err
	}
	return data, nil
}
