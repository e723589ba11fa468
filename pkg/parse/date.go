package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tradeunity/salesintel/pkg/apperrors"
)

// DateFormat names a family of date layouts that share the same field order.
// Each input file declares the family it uses; families are never guessed.
type DateFormat string

const (
	DateISO     DateFormat = "iso"     // 2024-07-20, 2024-07-20 13:00:00
	DateDMY     DateFormat = "dmy"     // 20/07/2024, 20/07/2024 13:00
	DateMDY     DateFormat = "mdy"     // 7/20/24, 7/20/24, 1:00 PM
	DateTextual DateFormat = "textual" // 9 sept 2022, 21:00:00
)

// OutputDateLayout is the layout used when dates are written back to CSV.
const OutputDateLayout = "02/01/2006 15:04"

// TwoDigitYearCutoff maps two-digit years below it to 20xx, others to 19xx.
const TwoDigitYearCutoff = 50

// ParseDateFormat validates a configured family name.
func ParseDateFormat(name string) (DateFormat, error) {
	f := DateFormat(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case DateISO, DateDMY, DateMDY, DateTextual:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownDateFormat, name)
	}
}

var (
	isoLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}
	dmyLayouts = []string{
		"2/1/2006",
		"2/1/2006 15:04",
		"2/1/2006 15:04:05",
	}

	mdyPattern     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})(?:,?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?)?$`)
	textualPattern = regexp.MustCompile(`^(\d{1,2})\s+([[:alpha:]]+)\.?\s+(\d{4})(?:,?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
)

var monthAbbreviations = map[string]time.Month{
	"ene": time.January, "jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"abr": time.April, "apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August, "aug": time.August,
	"sep": time.September, "sept": time.September, "set": time.September,
	"oct": time.October,
	"nov": time.November,
	"dic": time.December, "dec": time.December,
}

// Date parses s using the layouts of the given family. The second return
// value is false when s is blank or does not match the family.
func Date(s string, format DateFormat) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	switch format {
	case DateISO:
		return tryLayouts(s, isoLayouts)
	case DateDMY:
		return tryLayouts(s, dmyLayouts)
	case DateMDY:
		return parseMDY(s)
	case DateTextual:
		return parseTextual(s)
	default:
		return time.Time{}, false
	}
}

// FormatDate renders t with OutputDateLayout, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(OutputDateLayout)
}

// ExpandYear applies TwoDigitYearCutoff to a year with fewer than three digits.
func ExpandYear(year int) int {
	if year >= 100 {
		return year
	}
	if year < TwoDigitYearCutoff {
		return 2000 + year
	}
	return 1900 + year
}

func tryLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseMDY(s string) (time.Time, bool) {
	m := mdyPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	year = ExpandYear(year)

	hour, minute, sec, ok := clock(m[4], m[5], m[6])
	if !ok {
		return time.Time{}, false
	}
	switch strings.ToUpper(m[7]) {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}

	return buildDate(year, time.Month(month), day, hour, minute, sec)
}

func parseTextual(s string) (time.Time, bool) {
	m := textualPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, ok := monthAbbreviations[strings.ToLower(m[2])]
	if !ok {
		// Full month names share their first three letters with the abbreviation.
		name := strings.ToLower(m[2])
		if len(name) < 3 {
			return time.Time{}, false
		}
		if month, ok = monthAbbreviations[name[:3]]; !ok {
			return time.Time{}, false
		}
	}
	year, _ := strconv.Atoi(m[3])

	hour, minute, sec, ok := clock(m[4], m[5], m[6])
	if !ok {
		return time.Time{}, false
	}
	return buildDate(year, month, day, hour, minute, sec)
}

func clock(h, m, s string) (int, int, int, bool) {
	if h == "" {
		return 0, 0, 0, true
	}
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	sec := 0
	if s != "" {
		sec, _ = strconv.Atoi(s)
	}
	if hour > 23 || minute > 59 || sec > 59 {
		return 0, 0, 0, false
	}
	return hour, minute, sec, true
}

// buildDate rejects out-of-range components instead of letting time.Date
// normalize 31/02 into March.
func buildDate(year int, month time.Month, day, hour, minute, sec int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, hour, minute, sec, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// DaysBetween returns the whole days from start to end, truncating both to
// midnight first.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
