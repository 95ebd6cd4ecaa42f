package po

import (
	"time"

	"marketplace/domain/seller"
)

// SellerProfilePO Seller settlement profile persistence object.
type SellerProfilePO struct {
	SellerRef     string    `gorm:"primaryKey;size:64"`
	AccountHolder string    `gorm:"size:255;not null"`
	AccountNumber string    `gorm:"size:64;not null"`
	IFSCCode      string    `gorm:"size:16;not null"`
	BankName      string    `gorm:"size:255"`
	Version       int       `gorm:"default:0"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (SellerProfilePO) TableName() string {
	return "seller_profiles"
}

// FromProfileDomain Convert domain model to persistence object.
func FromProfileDomain(p *seller.Profile) *SellerProfilePO {
	details := p.BankDetails()
	return &SellerProfilePO{
		SellerRef:     p.SellerRef(),
		AccountHolder: details.AccountHolder,
		AccountNumber: details.AccountNumber,
		IFSCCode:      details.IFSCCode,
		BankName:      details.BankName,
		Version:       p.Version(),
		UpdatedAt:     p.UpdatedAt(),
	}
}

// ToDomain Convert persistence object to the domain model.
func (po *SellerProfilePO) ToDomain() *seller.Profile {
	return seller.RebuildProfileFromDTO(seller.ProfileReconstructionDTO{
		SellerRef: po.SellerRef,
		BankDetails: seller.BankDetails{
			AccountHolder: po.AccountHolder,
			AccountNumber: po.AccountNumber,
			IFSCCode:      po.IFSCCode,
			BankName:      po.BankName,
		},
		Version:   po.Version,
		UpdatedAt: po.UpdatedAt,
	})
}
