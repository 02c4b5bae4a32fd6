package season

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT NORMALIZATION - Bad numbers become zero
// =============================================================================
//
// Every numeric input that reaches the projector passes through here.
// Missing, unparsable, non-finite, negative and out-of-range values all
// normalize to 0. None of these are errors.

const (
	// MaxDays is the largest amount accepted for any single input.
	MaxDays = 10000

	// maxInputLen bounds the text handed to the decimal parser.
	maxInputLen = 32

	// Exponent window for parsed amounts. Anything finer than 1e-16 or
	// coarser than 1e6 is treated as malformed; decimal arithmetic
	// rescales to the smallest exponent on every add.
	minExponent = -16
	maxExponent = 6
)

var maxDays = decimal.NewFromInt(MaxDays)

// bounded returns d as an Amount, or zero when d is negative or outside
// the accepted exponent and magnitude range.
func bounded(d decimal.Decimal) Amount {
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return Amount{}.Zero()
	}
	if d.IsNegative() || d.GreaterThan(maxDays) {
		return Amount{}.Zero()
	}
	return NewAmountFromDecimal(d)
}

// DaysFromFloat converts f to an Amount, mapping NaN, ±Inf, negatives and
// values above MaxDays to 0.
func DaysFromFloat(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > MaxDays {
		return Amount{}.Zero()
	}
	return bounded(decimal.NewFromFloat(f))
}

// ParseDays parses user input such as "2.5", " 3 ", "1,5" or "".
// A comma is accepted as the decimal separator. Inputs longer than a
// plain number, like "1e-1000000" or "1e400", read as 0.
func ParseDays(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxInputLen {
		return Amount{}.Zero()
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}.Zero()
	}
	return bounded(d)
}

// NonNegative clamps a to zero from below. Amounts outside the accepted
// range also become zero.
func NonNegative(a Amount) Amount {
	return bounded(a.Value)
}

// Normalize returns c with every field clamped to >= 0.
func (c Config) Normalize() Config {
	return Config{
		BufferDays:     NonNegative(c.BufferDays),
		EarnedPerMonth: NonNegative(c.EarnedPerMonth),
		ExtraDaysPool:  NonNegative(c.ExtraDaysPool),
	}
}

// Normalize returns p with every month clamped to >= 0.
func (p MonthlyPlan) Normalize() MonthlyPlan {
	var out MonthlyPlan
	for i, a := range p {
		out[i] = NonNegative(a)
	}
	return out
}
