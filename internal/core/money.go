package core

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var nonAmountChars = regexp.MustCompile(`[^\d.-]`)

// ParseAmount converts a Brazilian-formatted monetary string into a Decimal.
// "1.234,56" becomes 1234.56 and "460,00" becomes 460.00. Empty or
// unparsable input yields zero: a single malformed token must not abort the
// whole document.
func ParseAmount(text string) decimal.Decimal {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero
	}

	// Thousands dots out, decimal comma to a point, then drop anything that
	// is not a digit, point or minus sign.
	text = strings.ReplaceAll(text, ".", "")
	text = strings.ReplaceAll(text, ",", ".")
	text = nonAmountChars.ReplaceAllString(text, "")

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseDate parses a DD/MM/YYYY token. The second return is false on
// mismatch so callers can keep processing columns that are not dates.
func ParseDate(text string) (time.Time, bool) {
	t, err := time.Parse("02/01/2006", strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
