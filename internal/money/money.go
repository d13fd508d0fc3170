// Package money holds integer minor-unit amounts and their decimal conversions.
//
// Amounts inside the engine are always Amount values. decimal.Decimal only appears at the
// service boundary, where user-facing values such as "12.50" are turned into minor units.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrPrecision       = errors.New("amount has more decimal places than the currency allows")
	ErrOutOfRange      = errors.New("amount out of range")
	ErrOverflow        = errors.New("amount overflow")
)

// Amount is a signed quantity in the smallest currency unit (paise, cents).
type Amount int64

// Currency is an ISO 4217 code supported by the ledger.
type Currency string

const (
	INR Currency = "INR"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

var exponents = map[Currency]int32{
	INR: 2,
	USD: 2,
	EUR: 2,
	GBP: 2,
}

// ParseCurrency normalizes and checks a currency code.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if _, ok := exponents[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return c, nil
}

// Exponent returns the number of minor-unit digits. Unknown currencies report 2.
func (c Currency) Exponent() int32 {
	if exp, ok := exponents[c]; ok {
		return exp
	}
	return 2
}

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// FromDecimal converts a decimal major-unit value into minor units. It never rounds:
// 10.005 INR is rejected rather than silently becoming 1000 or 1001 paise.
func FromDecimal(d decimal.Decimal, c Currency) (Amount, error) {
	exp, ok := exponents[c]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, string(c))
	}
	scaled := d.Shift(exp)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s %s", ErrPrecision, d.String(), c)
	}
	if scaled.GreaterThan(maxAmount) || scaled.LessThan(minAmount) {
		return 0, fmt.Errorf("%w: %s %s", ErrOutOfRange, d.String(), c)
	}
	return Amount(scaled.IntPart()), nil
}

// Decimal converts minor units back into a major-unit decimal.
func (a Amount) Decimal(c Currency) decimal.Decimal {
	return decimal.New(int64(a), -c.Exponent())
}

// Format renders the amount for display, e.g. "INR 12.50".
func (a Amount) Format(c Currency) string {
	return fmt.Sprintf("%s %s", c, a.Decimal(c).StringFixed(c.Exponent()))
}

// Abs returns the absolute value. math.MinInt64 is never produced by the engine.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Add returns a+b or ErrOverflow.
func Add(a, b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return sum, nil
}

// Sum adds amounts with overflow checking.
func Sum(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		var err error
		if total, err = Add(total, a); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// BasisPoints expresses a percentage exactly: 1% = 100, 100% = FullPercent.
type BasisPoints int64

// FullPercent is 100% in basis points.
const FullPercent BasisPoints = 10000

// PercentFromDecimal converts a percentage such as 33.33 into basis points.
// More than two fractional digits are rejected.
func PercentFromDecimal(d decimal.Decimal) (BasisPoints, error) {
	scaled := d.Shift(2)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: percentage %s", ErrPrecision, d.String())
	}
	if scaled.GreaterThan(maxAmount) || scaled.LessThan(minAmount) {
		return 0, fmt.Errorf("%w: percentage %s", ErrOutOfRange, d.String())
	}
	return BasisPoints(scaled.IntPart()), nil
}

// Decimal renders basis points as a percentage.
func (b BasisPoints) Decimal() decimal.Decimal {
	return decimal.New(int64(b), -2)
}
