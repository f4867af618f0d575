// Package money converts statement magnitudes into integer minor units of a
// single ISO-4217 currency and formats them for display.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	BRL = "BRL"
	JPY = "JPY" // no decimal places
	CHF = "CHF"
)

var (
	ErrUnknownCurrency  = errors.New("unknown currency code")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// Money is an amount in minor units of one currency.
type Money struct {
	m *money.Money
}

// New creates a Money value from minor units.
func New(minor int64, currencyCode string) *Money {
	return &Money{m: money.New(minor, currencyCode)}
}

// Currency resolves an ISO-4217 code, case-insensitively.
func Currency(code string) (*money.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	c := money.GetCurrency(code)
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return c, nil
}

// NewFromDecimal converts amount to minor units, rounding half away from
// zero at the currency's fraction digits.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) (*Money, error) {
	c, err := Currency(currencyCode)
	if err != nil {
		return nil, err
	}
	minor := amount.Shift(int32(c.Fraction)).Round(0).IntPart()
	return New(minor, c.Code), nil
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the amount in minor units
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// CurrencyCode returns the ISO-4217 code.
func (m *Money) CurrencyCode() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsZero returns true if the amount is zero
func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// Add returns m + other. Both must share a currency.
func (m *Money) Add(other *Money) (*Money, error) {
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.CurrencyCode(), other.CurrencyCode())
	}
	return &Money{m: sum}, nil
}

// ToDecimal returns the amount in major units.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.m.Currency().Fraction))
}

// Display formats the amount with the currency symbol.
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// String implements fmt.Stringer.
func (m *Money) String() string {
	return m.Display()
}
