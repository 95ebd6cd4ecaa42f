package mysql

import (
	"context"
	"errors"
	"strings"

	"marketplace/domain/finance"
	"marketplace/infrastructure/persistence"
	"marketplace/infrastructure/persistence/mysql/po"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutRepository MySQL/GORM implementation of the payout request log.
type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *PayoutRepository) NextIdentity() string {
	return "payout-" + uuid.New().String()
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Duplicate entry") ||
		strings.Contains(errStr, "1062")
}

// Save persists the payout request. Inserts rely on the unique
// (seller_ref, idempotency_key) index to reject replays; updates are
// conditional on the stored version.
func (r *PayoutRepository) Save(ctx context.Context, p *finance.PayoutRequest) error {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return r.saveWithTx(tx, p)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveWithTx(tx, p)
	})
}

func (r *PayoutRepository) saveWithTx(tx *gorm.DB, p *finance.PayoutRequest) error {
	payoutPO := po.FromPayoutDomain(p)

	if p.IsNew() {
		if err := tx.Create(payoutPO).Error; err != nil {
			if isDuplicateKeyError(err) {
				return finance.ErrDuplicatePayoutRequest
			}
			return err
		}
		p.ClearNewFlag()
		return nil
	}

	expectedVersion := p.Version()
	result := tx.Model(&po.PayoutRequestPO{}).
		Where("id = ? AND version = ?", p.ID(), expectedVersion).
		Updates(map[string]interface{}{
			"status":     payoutPO.Status,
			"version":    expectedVersion + 1,
			"updated_at": payoutPO.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&po.PayoutRequestPO{}).Where("id = ?", p.ID()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return finance.NewPayoutNotFoundError(p.ID())
		}
		return finance.ErrConcurrentModification
	}

	p.IncrementVersionForSave()
	return nil
}

func (r *PayoutRepository) FindByID(ctx context.Context, id string) (*finance.PayoutRequest, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var payoutPO po.PayoutRequestPO
	result := r.getDB(ctx).First(&payoutPO, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, finance.NewPayoutNotFoundError(id)
		}
		return nil, result.Error
	}

	return payoutPO.ToDomain(), nil
}

func (r *PayoutRepository) FindBySeller(ctx context.Context, sellerRef string) ([]*finance.PayoutRequest, error) {
	var payoutPOs []po.PayoutRequestPO
	if err := r.getDB(ctx).
		Where("seller_ref = ?", sellerRef).
		Order("requested_at DESC").
		Find(&payoutPOs).Error; err != nil {
		return nil, err
	}

	payouts := make([]*finance.PayoutRequest, len(payoutPOs))
	for i, payoutPO := range payoutPOs {
		payouts[i] = payoutPO.ToDomain()
	}
	return payouts, nil
}

func (r *PayoutRepository) FindByIdempotencyKey(ctx context.Context, sellerRef, key string) (*finance.PayoutRequest, error) {
	var payoutPO po.PayoutRequestPO
	result := r.getDB(ctx).First(&payoutPO, "seller_ref = ? AND idempotency_key = ?", sellerRef, key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, finance.ErrPayoutNotFound
		}
		return nil, result.Error
	}

	return payoutPO.ToDomain(), nil
}

var _ finance.PayoutRepository = (*PayoutRepository)(nil)
