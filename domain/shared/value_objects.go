package shared

import (
	"errors"
	"math"
)

// Money is a value object holding an amount in minor currency units
// (paise, cents) together with its currency code. All monetary math in
// the system goes through Money so that no float ever touches an amount.
type Money struct {
	amount   int64
	currency string
}

// NewMoney creates a Money value from minor units and a currency code.
func NewMoney(amount int64, currency string) *Money {
	return &Money{
		amount:   amount,
		currency: currency,
	}
}

// Amount returns the amount in minor units.
func (m Money) Amount() int64 {
	return m.amount
}

// Currency returns the currency code.
func (m Money) Currency() string {
	return m.currency
}

// Add returns the sum as a new Money value.
func (m Money) Add(other Money) (*Money, error) {
	if m.currency != other.currency {
		return nil, errors.New("cannot add money with different currencies")
	}

	return &Money{
		amount:   m.amount + other.amount,
		currency: m.currency,
	}, nil
}

// Subtract returns the difference as a new Money value. The result may be
// negative; callers that must not go below zero check themselves.
func (m Money) Subtract(other Money) (*Money, error) {
	if m.currency != other.currency {
		return nil, errors.New("cannot subtract money with different currencies")
	}

	return &Money{
		amount:   m.amount - other.amount,
		currency: m.currency,
	}, nil
}

// Multiply scales the amount by an integer factor with overflow checking.
func (m Money) Multiply(factor int) (*Money, error) {
	if factor != 0 && (m.amount > math.MaxInt64/int64(factor) || m.amount < math.MinInt64/int64(factor)) {
		return nil, errors.New("money amount overflow")
	}

	return &Money{
		amount:   m.amount * int64(factor),
		currency: m.currency,
	}, nil
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.amount < 0
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.amount > 0
}

// IsGreaterThan reports m > other.
func (m Money) IsGreaterThan(other Money) bool {
	return m.amount > other.amount
}

// IsGreaterThanOrEqual reports m >= other.
func (m Money) IsGreaterThanOrEqual(other Money) bool {
	return m.amount >= other.amount
}

// Equals reports value equality of amount and currency.
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}
