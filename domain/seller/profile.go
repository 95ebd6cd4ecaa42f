// Package seller holds the seller-side settlement profile: the bank
// account a payout is remitted to. Identity and sessions live in an
// external provider; only the sellerRef crosses into this package.
package seller

import (
	"time"

	"marketplace/domain/shared"
)

// BankDetails is where a seller's payouts are remitted.
type BankDetails struct {
	AccountHolder string
	AccountNumber string
	IFSCCode      string
	BankName      string
}

// Profile is the seller settlement profile aggregate, keyed by the
// externally issued sellerRef.
type Profile struct {
	sellerRef   string
	bankDetails BankDetails
	version     int
	updatedAt   time.Time

	events []shared.DomainEvent
	isNew  bool
}

// NewProfile creates a settlement profile for a seller.
func NewProfile(sellerRef string, details BankDetails) (*Profile, error) {
	if sellerRef == "" {
		return nil, shared.NewValidationError("seller_profile", "seller_ref", "seller reference is required")
	}
	if err := validateBankDetails(details); err != nil {
		return nil, err
	}

	return &Profile{
		sellerRef:   sellerRef,
		bankDetails: details,
		version:     0,
		updatedAt:   time.Now(),
		isNew:       true,
	}, nil
}

func validateBankDetails(details BankDetails) error {
	if details.AccountHolder == "" {
		return shared.NewValidationError("seller_profile", "account_holder", "account holder name is required")
	}
	if details.AccountNumber == "" {
		return shared.NewValidationError("seller_profile", "account_number", "account number is required")
	}
	if details.IFSCCode == "" {
		return shared.NewValidationError("seller_profile", "ifsc_code", "IFSC code is required")
	}
	return nil
}

// ProfileReconstructionDTO rebuilds a Profile from storage.
type ProfileReconstructionDTO struct {
	SellerRef   string
	BankDetails BankDetails
	Version     int
	UpdatedAt   time.Time
}

// RebuildProfileFromDTO reconstructs the aggregate from persisted state.
func RebuildProfileFromDTO(dto ProfileReconstructionDTO) *Profile {
	return &Profile{
		sellerRef:   dto.SellerRef,
		bankDetails: dto.BankDetails,
		version:     dto.Version,
		updatedAt:   dto.UpdatedAt,
		isNew:       false,
	}
}

// UpdateBankDetails replaces the remittance account.
func (p *Profile) UpdateBankDetails(details BankDetails, now time.Time) error {
	if err := validateBankDetails(details); err != nil {
		return err
	}
	p.bankDetails = details
	p.updatedAt = now
	return nil
}

// IncrementVersionForSave bumps the version after a successful
// conditional write. Called by repositories only.
func (p *Profile) IncrementVersionForSave() {
	p.version++
}

// ClearNewFlag marks the aggregate as persisted. Repository use only.
func (p *Profile) ClearNewFlag() {
	p.isNew = false
}

func (p *Profile) ID() string               { return p.sellerRef }
func (p *Profile) SellerRef() string        { return p.sellerRef }
func (p *Profile) BankDetails() BankDetails { return p.bankDetails }
func (p *Profile) Version() int             { return p.version }
func (p *Profile) UpdatedAt() time.Time     { return p.updatedAt }
func (p *Profile) IsNew() bool              { return p.isNew }

// PullEvents returns recorded domain events and clears the list.
func (p *Profile) PullEvents() []shared.DomainEvent {
	events := make([]shared.DomainEvent, len(p.events))
	copy(events, p.events)
	p.events = p.events[:0]
	return events
}

var _ shared.AggregateRoot = (*Profile)(nil)
