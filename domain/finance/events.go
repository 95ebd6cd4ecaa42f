package finance

import (
	"time"

	"marketplace/domain/shared"
)

const (
	PayoutRequestedEventName     = "finance.payout_requested"
	PayoutStatusChangedEventName = "finance.payout_status_changed"
)

// PayoutRequestedEvent records that a new withdrawal claim was accepted.
type PayoutRequestedEvent struct {
	PayoutID   string
	SellerRef  string
	Amount     shared.Money
	occurredOn time.Time
}

func NewPayoutRequestedEvent(payoutID, sellerRef string, amount shared.Money) PayoutRequestedEvent {
	return PayoutRequestedEvent{
		PayoutID:   payoutID,
		SellerRef:  sellerRef,
		Amount:     amount,
		occurredOn: time.Now(),
	}
}

func (e PayoutRequestedEvent) EventName() string      { return PayoutRequestedEventName }
func (e PayoutRequestedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e PayoutRequestedEvent) GetAggregateID() string { return e.PayoutID }

// PayoutStatusChangedEvent records a settlement-side status advance.
type PayoutStatusChangedEvent struct {
	PayoutID       string
	SellerRef      string
	PreviousStatus PayoutStatus
	NewStatus      PayoutStatus
	occurredOn     time.Time
}

func NewPayoutStatusChangedEvent(payoutID, sellerRef string, previous, next PayoutStatus) PayoutStatusChangedEvent {
	return PayoutStatusChangedEvent{
		PayoutID:       payoutID,
		SellerRef:      sellerRef,
		PreviousStatus: previous,
		NewStatus:      next,
		occurredOn:     time.Now(),
	}
}

func (e PayoutStatusChangedEvent) EventName() string      { return PayoutStatusChangedEventName }
func (e PayoutStatusChangedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e PayoutStatusChangedEvent) GetAggregateID() string { return e.PayoutID }
