// Package format renders amounts and quantities for the portal views.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every rendered amount.
const CurrencySymbol = "₹"

// Rupees renders d with Indian digit grouping and exactly two decimals,
// e.g. ₹1,23,456.70.
func Rupees(d decimal.Decimal) string {
	return CurrencySymbol + Grouped(d.StringFixed(2))
}

// RupeesCompact renders d with Indian grouping and at most two decimals,
// dropping trailing zeros, e.g. ₹1,000 or ₹1,000.5.
func RupeesCompact(d decimal.Decimal) string {
	s := d.Round(2).String()
	return CurrencySymbol + Grouped(s)
}

// Quantity renders a line item quantity without trailing zeros.
func Quantity(d decimal.Decimal) string {
	return d.String()
}

// Grouped applies en-IN grouping (last three digits, then pairs) to the
// integer part of a plain decimal string.
func Grouped(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		intPart = strings.Join(append(groups, tail), ",")
	}

	if hasFrac {
		return sign + intPart + "." + frac
	}
	return sign + intPart
}
