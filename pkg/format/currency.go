// Package format renders budgets and percentages for human-readable output.
package format

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
)

// Currency returns an amount with the currency prefix and thousands separators
// (e.g., "LKR 1,234.56", "-LKR 1,234.56").
func Currency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	if d.IsNegative() {
		return "-" + constants.CurrencySymbol + group(d.Abs().StringFixed(2))
	}
	return constants.CurrencySymbol + group(d.StringFixed(2))
}

// NumericCurrency returns an amount rounded to cents with separators and no prefix
// (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	if d.IsNegative() {
		return "-" + group(d.Abs().StringFixed(2))
	}
	return group(d.StringFixed(2))
}

// Percent returns a value rounded to two decimals with a percent sign.
func Percent(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2) + "%"
}

// group inserts thousands separators into an unsigned fixed-point string.
func group(fixed string) string {
	intPart, decPart, _ := strings.Cut(fixed, ".")
	if len(intPart) <= 3 {
		if decPart == "" {
			return intPart
		}
		return intPart + "." + decPart
	}

	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	if decPart != "" {
		builder.WriteByte('.')
		builder.WriteString(decPart)
	}
	return builder.String()
}
