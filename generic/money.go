/*
Package generic holds the domain-agnostic building blocks of the renewal
engine: calendar dates, money amounts and the shared error taxonomy.

KEY CONCEPTS:
  - PolicyDate: a calendar date with explicit day-number arithmetic
  - Amount: a monetary value on decimal.Decimal (single currency)
  - Errors: sentinels for errors.Is plus structured errors carrying context

DESIGN PRINCIPLES:
  1. Precision: money never touches float64 arithmetic
  2. Purity: nothing in this package reads clocks or global state,
     except Today() which callers use at the edges only
  3. Type safety: dates and money are distinct types, not bare ints/floats

USAGE:
  due := generic.AddOneYear(generic.NewPolicyDate(1, 1, 2023))
  diff := generic.DaysBetween(due, generic.NewPolicyDate(15, 3, 2024))
  fee := premium.Mul(decimal.RequireFromString("0.015")).Min(generic.NewAmountFromInt(150))

SEE ALSO:
  - insurance/: premium and status rules built on these types
  - billing/: payment quote built on Amount
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Monetary value (single currency, rupees)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
}

var ZeroAmount = Amount{Value: decimal.Zero}

func NewAmount(value float64) Amount {
	return Amount{Value: decimal.NewFromFloat(value)}
}

func NewAmountFromInt(value int64) Amount {
	return Amount{Value: decimal.NewFromInt(value)}
}

// MustParseAmount panics on malformed input; meant for constants and tests.
func MustParseAmount(s string) Amount {
	return Amount{Value: decimal.RequireFromString(s)}
}

func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d}, nil
}

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s)} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg()} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Float64() float64             { f, _ := a.Value.Float64(); return f }
func (a Amount) String() string               { return a.Value.StringFixed(2) }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// FloorZero clamps negative amounts to zero.
func (a Amount) FloorZero() Amount { return a.Max(ZeroAmount) }

// Rounded rounds to whole paise, the precision amounts are shown in.
func (a Amount) Rounded() Amount { return Amount{Value: a.Value.Round(2)} }

// MarshalJSON writes a bare JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Value.StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Value.UnmarshalJSON(data)
}
