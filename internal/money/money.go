package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in minor currency units. All ledger arithmetic
// happens on this type so that sums are exact and no epsilon comparisons are
// needed; decimal formatting only happens at the API boundary.
type Cents int64

var ErrInvalidAmount = errors.New("amount must be a valid monetary value")

// FromDecimal converts a decimal amount of major units (e.g. "12.34") to
// minor units, rounding half away from zero beyond two decimal places.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Shift(2).Round(0).IntPart())
}

// Parse converts a decimal string of major units to minor units.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return FromDecimal(d), nil
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount with exactly two decimal places.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Abs returns the absolute value of the amount.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// Sum adds up a list of amounts.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
