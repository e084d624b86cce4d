package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRupees(t *testing.T) {
	cases := map[string]string{
		"0":         "₹0.00",
		"400":       "₹400.00",
		"1000":      "₹1,000.00",
		"12345.6":   "₹12,345.60",
		"123456.7":  "₹1,23,456.70",
		"10000000":  "₹1,00,00,000.00",
		"-2500.125": "₹-2,500.13",
		"999.999":   "₹1,000.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, Rupees(decimal.RequireFromString(in)), "in=%s", in)
	}
}

func TestRupeesCompact(t *testing.T) {
	assert.Equal(t, "₹1,000", RupeesCompact(decimal.RequireFromString("1000.00")))
	assert.Equal(t, "₹1,000.5", RupeesCompact(decimal.RequireFromString("1000.50")))
	assert.Equal(t, "₹0", RupeesCompact(decimal.Zero))
	assert.Equal(t, "₹2,34,567.89", RupeesCompact(decimal.RequireFromString("234567.891")))
}

func TestQuantity(t *testing.T) {
	assert.Equal(t, "2.5", Quantity(decimal.RequireFromString("2.50")))
	assert.Equal(t, "10", Quantity(decimal.NewFromInt(10)))
}

func TestGrouped(t *testing.T) {
	assert.Equal(t, "999", Grouped("999"))
	assert.Equal(t, "1,000", Grouped("1000"))
	assert.Equal(t, "12,34,567.5", Grouped("1234567.5"))
}
