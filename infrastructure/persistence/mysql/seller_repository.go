package mysql

import (
	"context"
	"errors"

	"marketplace/domain/seller"
	"marketplace/infrastructure/persistence"
	"marketplace/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// SellerRepository MySQL/GORM implementation of the seller settlement
// profile store.
type SellerRepository struct {
	db *gorm.DB
}

func NewSellerRepository(db *gorm.DB) *SellerRepository {
	return &SellerRepository{db: db}
}

func (r *SellerRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *SellerRepository) Save(ctx context.Context, p *seller.Profile) error {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return r.saveWithTx(tx, p)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveWithTx(tx, p)
	})
}

func (r *SellerRepository) saveWithTx(tx *gorm.DB, p *seller.Profile) error {
	profilePO := po.FromProfileDomain(p)

	if p.IsNew() {
		if err := tx.Create(profilePO).Error; err != nil {
			return err
		}
		p.ClearNewFlag()
		return nil
	}

	expectedVersion := p.Version()
	result := tx.Model(&po.SellerProfilePO{}).
		Where("seller_ref = ? AND version = ?", p.SellerRef(), expectedVersion).
		Updates(map[string]interface{}{
			"account_holder": profilePO.AccountHolder,
			"account_number": profilePO.AccountNumber,
			"ifsc_code":      profilePO.IFSCCode,
			"bank_name":      profilePO.BankName,
			"version":        expectedVersion + 1,
			"updated_at":     profilePO.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&po.SellerProfilePO{}).Where("seller_ref = ?", p.SellerRef()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return seller.ErrProfileNotFound
		}
		return seller.ErrConcurrentModification
	}

	p.IncrementVersionForSave()
	return nil
}

func (r *SellerRepository) FindBySellerRef(ctx context.Context, sellerRef string) (*seller.Profile, error) {
	var profilePO po.SellerProfilePO
	result := r.getDB(ctx).First(&profilePO, "seller_ref = ?", sellerRef)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, seller.ErrProfileNotFound
		}
		return nil, result.Error
	}

	return profilePO.ToDomain(), nil
}

var _ seller.Repository = (*SellerRepository)(nil)
