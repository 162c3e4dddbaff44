// Package money holds the fixed-point helpers shared by the ledger write path and the
// balance engine. Every amount is a decimal.Decimal with two-place currency semantics;
// binary floating point never enters a computation.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Places is the number of fractional digits kept for currency amounts.
const Places = 2

var (
	// Tolerance is the smallest amount treated as a real debt (one cent).
	Tolerance = decimal.New(1, -Places)

	ErrInvalidAmount = errors.New("invalid money amount")
)

// Negligible reports whether |d| is below one cent. Display layers drop such balances.
func Negligible(d decimal.Decimal) bool {
	return d.Abs().LessThan(Tolerance)
}

// Significant reports whether |d| is strictly above one cent. Creditor/debtor
// classification and transaction counts use this bound.
func Significant(d decimal.Decimal) bool {
	return d.Abs().GreaterThan(Tolerance)
}

// Parse reads a positive amount such as "12.34" or "12,34", rounding half-up to cents.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	d = d.Round(Places)
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	return d, nil
}

// Format renders d with exactly two decimals prefixed by the ISO currency code.
func Format(d decimal.Decimal, unit currency.Unit) string {
	return unit.String() + " " + d.StringFixed(Places)
}

// Allocate divides total proportionally to weights. Each share is rounded down to the
// cent and the leftover cents go one at a time to the positive weights in input order,
// so the shares always sum to total (rounded to cents).
func Allocate(total decimal.Decimal, weights []decimal.Decimal) ([]decimal.Decimal, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrInvalidAmount)
	}
	weightSum := decimal.Zero
	for _, w := range weights {
		if w.IsNegative() {
			return nil, fmt.Errorf("%w: negative weight %s", ErrInvalidAmount, w)
		}
		weightSum = weightSum.Add(w)
	}
	if !weightSum.IsPositive() {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidAmount)
	}

	total = total.Round(Places)
	shares := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i, w := range weights {
		shares[i] = total.Mul(w).Div(weightSum).RoundDown(Places)
		allocated = allocated.Add(shares[i])
	}

	leftover := total.Sub(allocated).Shift(Places).IntPart()
	for i := 0; leftover > 0; i = (i + 1) % len(weights) {
		if !weights[i].IsPositive() {
			continue
		}
		shares[i] = shares[i].Add(Tolerance)
		leftover--
	}
	return shares, nil
}
