// Package money provides currency-safe monetary values using integer minor
// units and ISO-4217 currency codes. Valuations computed with full-precision
// decimals are converted here only at the presentation edge, so display
// rounding never leaks back into portfolio math.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217).
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	CHF = "CHF"
	JPY = "JPY"
)

// ErrCurrencyMismatch is returned when combining values of different currencies.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is a monetary value in a single currency. The zero value is not
// usable; construct with New, NewFromDecimal, or Zero.
type Money struct {
	m *money.Money
}

// New creates a Money from minor units (cents for two-decimal currencies).
func New(amount int64, currencyCode string) *Money {
	return &Money{m: money.New(amount, currencyCode)}
}

// Zero returns a zero value in the given currency.
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// NewFromDecimal converts an exact decimal amount to minor units, rounding
// half-up at the currency's fraction.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
		currencyCode = USD
	}
	minor := amount.Mul(decimal.New(1, int32(currency.Fraction))).Round(0).IntPart()
	return New(minor, currencyCode)
}

// Amount returns the value in minor units.
func (m *Money) Amount() int64 { return m.m.Amount() }

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string { return m.m.Currency().Code }

// IsZero reports whether the amount is zero.
func (m *Money) IsZero() bool { return m.m.IsZero() }

// IsNegative reports whether the amount is below zero.
func (m *Money) IsNegative() bool { return m.m.IsNegative() }

// Add returns m + other; the currencies must match.
func (m *Money) Add(other *Money) (*Money, error) {
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	return &Money{m: sum}, nil
}

// Sub returns m - other; the currencies must match.
func (m *Money) Sub(other *Money) (*Money, error) {
	diff, err := m.m.Subtract(other.m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	return &Money{m: diff}, nil
}

// Negate returns the value with its sign flipped.
func (m *Money) Negate() *Money {
	return &Money{m: m.m.Negative()}
}

// Compare returns -1, 0, or 1; the currencies must match.
func (m *Money) Compare(other *Money) (int, error) {
	if m.Currency() != other.Currency() {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	switch {
	case m.Amount() < other.Amount():
		return -1, nil
	case m.Amount() > other.Amount():
		return 1, nil
	}
	return 0, nil
}

// ToDecimal returns the exact decimal representation.
func (m *Money) ToDecimal() decimal.Decimal {
	return decimal.New(m.Amount(), -int32(m.m.Currency().Fraction))
}

// Display formats the value with its currency symbol, e.g. "$1,234.56".
func (m *Money) Display() string { return m.m.Display() }

// String returns "<amount> <code>", e.g. "1234.56 USD".
func (m *Money) String() string {
	return fmt.Sprintf("%s %s", m.ToDecimal().StringFixed(int32(m.m.Currency().Fraction)), m.Currency())
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

// MarshalJSON renders the amount as a decimal string plus display form.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.ToDecimal().String(),
		Currency: m.Currency(),
		Display:  m.Display(),
	})
}

// UnmarshalJSON accepts the MarshalJSON shape.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", v.Amount, err)
	}
	*m = *NewFromDecimal(amount, v.Currency)
	return nil
}

// Value implements driver.Valuer, storing "<minor>|<code>".
func (m *Money) Value() (driver.Value, error) {
	return fmt.Sprintf("%d|%s", m.Amount(), m.Currency()), nil
}

// Scan implements sql.Scanner for the Value encoding.
func (m *Money) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*m = *Zero(USD)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}

	var amount int64
	var code string
	if _, err := fmt.Sscanf(raw, "%d|%s", &amount, &code); err != nil {
		return fmt.Errorf("invalid money encoding %q: %w", raw, err)
	}
	*m = *New(amount, code)
	return nil
}
