package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBaht formats an amount as Thai baht with thousands separators.
// Example: 1234.5 -> "฿1,234.50"
func FormatBaht(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-฿" + FormatAmount(amount.Neg())
	}
	return "฿" + FormatAmount(amount)
}

// FormatAmount renders two decimals with comma thousands separators.
func FormatAmount(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	s := amount.StringFixed(2)
	parts := strings.SplitN(s, ".", 2)
	integerPart := parts[0]

	var b strings.Builder
	for i, r := range integerPart {
		if i > 0 && (len(integerPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + parts[1]
}
