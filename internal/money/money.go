// Package money provides fixed-point decimal monetary arithmetic for the
// ledger.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits the system carries.
const Scale = 2

// ErrNonPositiveAmount is returned by MustPositive for amounts that are
// zero or negative.
var ErrNonPositiveAmount = errors.New("money: amount must be strictly positive")

// Money is a currency-tagged fixed-point decimal value.
type Money struct {
	Value    decimal.Decimal
	Currency string
}

// Zero returns the zero value of the given currency.
func Zero(currency string) Money {
	return Money{Value: decimal.Zero, Currency: currency}
}

// New builds a Money from a float, rounding to Scale. Intended for tests and
// seed data, never for parsing client input (use NewFromString for that).
func New(value float64, currency string) Money {
	return Money{Value: decimal.NewFromFloat(value).Round(Scale), Currency: currency}
}

// NewFromString parses a decimal string (e.g. a JSON request field decoded
// as a string) into a Money value, rejecting malformed input.
func NewFromString(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return Money{Value: d.Round(Scale), Currency: currency}, nil
}

// MustPositive validates that the amount is strictly positive. Every
// money-moving operation requires this of its amount.
func (m Money) MustPositive() error {
	if !m.Value.IsPositive() {
		return ErrNonPositiveAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Value: m.Value.Add(o.Value), Currency: m.Currency} }

func (m Money) Sub(o Money) Money { return Money{Value: m.Value.Sub(o.Value), Currency: m.Currency} }

func (m Money) Neg() Money { return Money{Value: m.Value.Neg(), Currency: m.Currency} }

func (m Money) IsZero() bool { return m.Value.IsZero() }

func (m Money) IsNegative() bool { return m.Value.IsNegative() }

func (m Money) IsPositive() bool { return m.Value.IsPositive() }

func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }

func (m Money) LessThan(o Money) bool { return m.Value.LessThan(o.Value) }

func (m Money) Equal(o Money) bool { return m.Value.Equal(o.Value) }

// String renders the amount with Scale fractional digits, e.g. "150.75".
func (m Money) String() string {
	return m.Value.StringFixed(Scale)
}

// MarshalJSON encodes the amount as a JSON string to avoid float round-trip
// loss at the wire boundary.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Value.StringFixed(Scale) + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number;
// clients send amount both ways.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: invalid amount %q: %w", string(b), err)
	}
	m.Value = d.Round(Scale)
	return nil
}
