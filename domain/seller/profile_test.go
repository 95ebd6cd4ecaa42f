package seller

import (
	"errors"
	"testing"
	"time"

	"marketplace/domain/shared"
)

func validDetails() BankDetails {
	return BankDetails{
		AccountHolder: "Asha Verma",
		AccountNumber: "000123456789",
		IFSCCode:      "HDFC0001234",
		BankName:      "HDFC Bank",
	}
}

func TestNewProfile(t *testing.T) {
	p, err := NewProfile("seller-a", validDetails())
	if err != nil {
		t.Fatalf("NewProfile failed: %v", err)
	}
	if p.SellerRef() != "seller-a" {
		t.Errorf("sellerRef = %q, want seller-a", p.SellerRef())
	}
	if !p.IsNew() || p.Version() != 0 {
		t.Error("fresh profile must be new at version 0")
	}
}

func TestNewProfileValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BankDetails)
	}{
		{"missing holder", func(d *BankDetails) { d.AccountHolder = "" }},
		{"missing account number", func(d *BankDetails) { d.AccountNumber = "" }},
		{"missing IFSC", func(d *BankDetails) { d.IFSCCode = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := validDetails()
			tt.mutate(&details)
			if _, err := NewProfile("seller-a", details); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}

	if _, err := NewProfile("", validDetails()); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("empty sellerRef: error = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateBankDetails(t *testing.T) {
	p, err := NewProfile("seller-a", validDetails())
	if err != nil {
		t.Fatalf("NewProfile failed: %v", err)
	}

	next := validDetails()
	next.BankName = "ICICI Bank"
	now := time.Now().Add(time.Hour)
	if err := p.UpdateBankDetails(next, now); err != nil {
		t.Fatalf("UpdateBankDetails failed: %v", err)
	}
	if p.BankDetails().BankName != "ICICI Bank" {
		t.Errorf("bank name = %q, want ICICI Bank", p.BankDetails().BankName)
	}
	if !p.UpdatedAt().Equal(now) {
		t.Error("updatedAt not advanced")
	}

	bad := validDetails()
	bad.AccountNumber = ""
	if err := p.UpdateBankDetails(bad, time.Now()); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}
