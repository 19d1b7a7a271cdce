package token

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of token amounts.
const Decimals = 7

// FormatAmount renders an amount with trailing zeros trimmed.
func FormatAmount(amount decimal.Decimal) string {
	return amount.Truncate(Decimals).String()
}

// ParseAmount parses a positive decimal amount with at most Decimals
// fractional digits.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.New("amount must be positive")
	}
	if !d.Equal(d.Truncate(Decimals)) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimal places", s, Decimals)
	}
	return d, nil
}
