// Package money centralizes currency arithmetic. All monetary amounts are
// shopspring decimals quantized to two places with half-up rounding before
// they are persisted or compared.
package money

import "github.com/shopspring/decimal"

// Round applies half-up rounding at two decimal places.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Mul multiplies a unit price by a quantity and rounds the result.
func Mul(price decimal.Decimal, qty int) decimal.Decimal {
	return Round(price.Mul(decimal.NewFromInt(int64(qty))))
}

// Sum adds amounts and rounds the total.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Round(total)
}

// ApplyRate multiplies amount by a fractional rate and rounds.
func ApplyRate(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate))
}
