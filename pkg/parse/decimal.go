// Package parse converts the loosely formatted cells found in e-commerce and
// ERP exports into typed values.
package parse

import (
	"strings"

	"github.com/shopspring/decimal"
)

// cellReplacer drops currency symbols, percent signs and every kind of space
// that spreadsheet exports put around numbers.
var cellReplacer = strings.NewReplacer(
	"$", "",
	"%", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"\t", "",
	"USD", "",
	"ARS", "",
)

// Decimal parses a numeric cell. Either "." or "," may be the decimal
// separator; when both appear the last one wins and the other is treated as
// a thousands separator. Empty or unparseable input yields zero.
func Decimal(s string) decimal.Decimal {
	d, ok := parseDecimal(s)
	if !ok {
		return decimal.Zero
	}
	return d
}

// NullDecimal parses like Decimal but reports blank or garbage input as an
// invalid value instead of zero.
func NullDecimal(s string) decimal.NullDecimal {
	d, ok := parseDecimal(s)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Int parses a cell holding a whole number, truncating any fractional part.
// Like Decimal it returns zero for blank input.
func Int(s string) int {
	return int(Decimal(s).IntPart())
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	cleaned := cellReplacer.Replace(strings.TrimSpace(s))
	if cleaned == "" || strings.EqualFold(cleaned, "nan") || strings.EqualFold(cleaned, "none") {
		return decimal.Zero, false
	}

	cleaned = normalizeSeparators(cleaned)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// normalizeSeparators rewrites s so that "." is the only decimal separator
// and thousands separators are gone.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		// 1,234.56
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			// 1,234,567 is a thousands grouping, not a decimal.
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}
