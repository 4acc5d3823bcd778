package util

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyPrefix = regexp.MustCompile(`^(?i)(?:[A-Z]{3}|₱|\$|€|£)\s*`)
	groupedComma   = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	groupedDot     = regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3})+,\d+$`)
	decimalComma   = regexp.MustCompile(`^-?\d+,\d{1,2}$`)
)

// ParseAmount reads a money cell such as "1,250.00", "PHP 12.50" or "7".
// Anything else is reported as not valid.
func ParseAmount(input string) decimal.NullDecimal {
	token := strings.TrimSpace(strings.ReplaceAll(input, "\u00A0", " "))
	token = currencyPrefix.ReplaceAllString(token, "")
	if token == "" {
		return decimal.NullDecimal{}
	}

	parsed, err := decimal.NewFromString(normalizeNumericToken(token))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(parsed)
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if groupedComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if groupedDot.MatchString(compact) {
		compact = strings.ReplaceAll(compact, ".", "")
		return strings.ReplaceAll(compact, ",", ".")
	}
	if decimalComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}
