// internal/models/amount.go
package models

import (
	"regexp"
	"strconv"
)

var nonAmount = regexp.MustCompile(`[^0-9.]`)

// StripAmount removes everything except digits and the decimal point, which
// is how currency input is stored.
func StripAmount(value string) string {
	return nonAmount.ReplaceAllString(value, "")
}

// ParseAmount strips and parses a currency string.
func ParseAmount(value string) (float64, bool) {
	n, err := strconv.ParseFloat(StripAmount(value), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
