package po

import (
	"time"

	"marketplace/domain/finance"
	"marketplace/domain/shared"
)

// PayoutRequestPO Payout request persistence object. The composite
// unique index on (seller_ref, idempotency_key) is what makes payout
// creation replay-safe: a client retry after a timeout hits the index
// instead of inserting a second claim.
type PayoutRequestPO struct {
	ID             string    `gorm:"primaryKey;size:64"`
	SellerRef      string    `gorm:"size:64;index;not null;uniqueIndex:uniq_seller_idem"`
	Amount         int64     `gorm:"not null"`
	Currency       string    `gorm:"size:3;not null"`
	Status         string    `gorm:"size:20;not null"`
	IdempotencyKey string    `gorm:"size:128;not null;uniqueIndex:uniq_seller_idem"`
	RequestedAt    time.Time `gorm:"index;not null"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
	Version        int       `gorm:"default:0"`
}

func (PayoutRequestPO) TableName() string {
	return "payout_requests"
}

// FromPayoutDomain Convert domain model to persistence object.
func FromPayoutDomain(p *finance.PayoutRequest) *PayoutRequestPO {
	return &PayoutRequestPO{
		ID:             p.ID(),
		SellerRef:      p.SellerRef(),
		Amount:         p.Amount().Amount(),
		Currency:       p.Amount().Currency(),
		Status:         string(p.Status()),
		IdempotencyKey: p.IdempotencyKey(),
		RequestedAt:    p.RequestedAt(),
		UpdatedAt:      p.UpdatedAt(),
		Version:        p.Version(),
	}
}

// ToDomain Convert persistence object to the domain model.
func (po *PayoutRequestPO) ToDomain() *finance.PayoutRequest {
	return finance.RebuildPayoutFromDTO(finance.PayoutReconstructionDTO{
		ID:             po.ID,
		SellerRef:      po.SellerRef,
		Amount:         *shared.NewMoney(po.Amount, po.Currency),
		Status:         finance.PayoutStatus(po.Status),
		IdempotencyKey: po.IdempotencyKey,
		RequestedAt:    po.RequestedAt,
		UpdatedAt:      po.UpdatedAt,
		Version:        po.Version,
	})
}
