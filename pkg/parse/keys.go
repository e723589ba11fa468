package parse

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Key normalizes a join identifier (SKU, ERP reference). Every lookup table
// and every probe must go through Key so both sides compare equal.
func Key(s string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFC.String(s)))
}

// Email normalizes a customer e-mail used as the aggregation key.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// Text trims a free-text cell and folds it to NFC so that visually equal
// brand and category names group together.
func Text(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

var nonDigits = regexp.MustCompile(`\D`)

// TaxID formats an 11-digit CUIT as XX-XXXXXXXX-X. Other values are
// returned trimmed and otherwise untouched.
func TaxID(s string) string {
	// Spreadsheet round-trips turn the id into a float.
	s = strings.TrimSuffix(strings.TrimSpace(s), ".0")
	digits := nonDigits.ReplaceAllString(s, "")
	if len(digits) != 11 {
		return s
	}
	return digits[:2] + "-" + digits[2:10] + "-" + digits[10:]
}
