package finance

import (
	"fmt"
	"time"

	"marketplace/domain/shared"

	"github.com/google/uuid"
)

// PayoutStatus is the settlement state of a payout request. This core
// creates requests as Pending; an external settlement process advances
// them afterwards.
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "Pending"
	PayoutStatusProcessing PayoutStatus = "Processing"
	PayoutStatusCompleted  PayoutStatus = "Completed"
	PayoutStatusRejected   PayoutStatus = "Rejected"
)

var payoutTransitions = map[PayoutStatus]map[PayoutStatus]bool{
	PayoutStatusPending: {
		PayoutStatusProcessing: true,
		PayoutStatusRejected:   true,
	},
	PayoutStatusProcessing: {
		PayoutStatusCompleted: true,
		PayoutStatusRejected:  true,
	},
	PayoutStatusCompleted: {},
	PayoutStatusRejected:  {},
}

// IsValidPayoutStatus reports whether s names a known payout status.
func IsValidPayoutStatus(s PayoutStatus) bool {
	_, ok := payoutTransitions[s]
	return ok
}

// CountsAgainstBalance reports whether requests in this status reduce the
// seller's available balance. Only Rejected requests release their amount.
func (s PayoutStatus) CountsAgainstBalance() bool {
	return s != PayoutStatusRejected
}

// PayoutRequest is a seller's withdrawal claim against settled earnings.
// Its amount is reserved against the balance from creation until the
// request is rejected.
type PayoutRequest struct {
	id             string
	sellerRef      string
	amount         shared.Money
	status         PayoutStatus
	idempotencyKey string
	requestedAt    time.Time
	updatedAt      time.Time
	version        int

	events []shared.DomainEvent
	isNew  bool
}

// NewPayoutRequest creates a Pending payout request. Balance eligibility
// is checked by the application service inside the seller's critical
// section; this factory validates only the request itself.
func NewPayoutRequest(sellerRef string, amount shared.Money, idempotencyKey string) (*PayoutRequest, error) {
	if sellerRef == "" {
		return nil, shared.NewValidationError("payout_request", "seller_ref", "seller reference is required")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if idempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate payout ID: %w", err)
	}

	now := time.Now()
	p := &PayoutRequest{
		id:             id.String(),
		sellerRef:      sellerRef,
		amount:         amount,
		status:         PayoutStatusPending,
		idempotencyKey: idempotencyKey,
		requestedAt:    now,
		updatedAt:      now,
		isNew:          true,
	}
	p.events = append(p.events, NewPayoutRequestedEvent(p.id, sellerRef, amount))
	return p, nil
}

// PayoutReconstructionDTO rebuilds a PayoutRequest from storage.
type PayoutReconstructionDTO struct {
	ID             string
	SellerRef      string
	Amount         shared.Money
	Status         PayoutStatus
	IdempotencyKey string
	RequestedAt    time.Time
	UpdatedAt      time.Time
	Version        int
}

// RebuildPayoutFromDTO reconstructs the aggregate from persisted state.
func RebuildPayoutFromDTO(dto PayoutReconstructionDTO) *PayoutRequest {
	return &PayoutRequest{
		id:             dto.ID,
		sellerRef:      dto.SellerRef,
		amount:         dto.Amount,
		status:         dto.Status,
		idempotencyKey: dto.IdempotencyKey,
		requestedAt:    dto.RequestedAt,
		updatedAt:      dto.UpdatedAt,
		version:        dto.Version,
		isNew:          false,
	}
}

// Transition advances the payout status on behalf of the settlement
// process. Completed and Rejected are final.
func (p *PayoutRequest) Transition(target PayoutStatus, now time.Time) error {
	if p.status == target {
		return nil
	}
	if !payoutTransitions[p.status][target] {
		return NewInvalidPayoutTransitionError(p.status, target)
	}

	previous := p.status
	p.status = target
	p.updatedAt = now
	p.events = append(p.events, NewPayoutStatusChangedEvent(p.id, p.sellerRef, previous, target))
	return nil
}

// IncrementVersionForSave bumps the version after a successful
// conditional write. Called by repositories only.
func (p *PayoutRequest) IncrementVersionForSave() {
	p.version++
}

// ClearNewFlag marks the aggregate as persisted. Repository use only.
func (p *PayoutRequest) ClearNewFlag() {
	p.isNew = false
}

func (p *PayoutRequest) ID() string             { return p.id }
func (p *PayoutRequest) SellerRef() string      { return p.sellerRef }
func (p *PayoutRequest) Amount() shared.Money   { return p.amount }
func (p *PayoutRequest) Status() PayoutStatus   { return p.status }
func (p *PayoutRequest) IdempotencyKey() string { return p.idempotencyKey }
func (p *PayoutRequest) RequestedAt() time.Time { return p.requestedAt }
func (p *PayoutRequest) UpdatedAt() time.Time   { return p.updatedAt }
func (p *PayoutRequest) Version() int           { return p.version }
func (p *PayoutRequest) IsNew() bool            { return p.isNew }

// PullEvents returns recorded domain events and clears the list.
func (p *PayoutRequest) PullEvents() []shared.DomainEvent {
	events := make([]shared.DomainEvent, len(p.events))
	copy(events, p.events)
	p.events = p.events[:0]
	return events
}

var _ shared.AggregateRoot = (*PayoutRequest)(nil)
