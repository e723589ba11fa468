package repositories

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tradeunity/salesintel/pkg/models"
)

var (
	// (25-10 al 01-11) 2024
	shortRangePattern = regexp.MustCompile(`\((\d{1,2})-(\d{1,2})\s+al\s+(\d{1,2})-(\d{1,2})\)\s+(\d{4})`)
	// (26-12-2024 al 08-01-2025)
	fullRangePattern = regexp.MustCompile(`\((\d{1,2})-(\d{1,2})-(\d{4})\s+al\s+(\d{1,2})-(\d{1,2})-(\d{4})\)`)

	pricePrefixPattern  = regexp.MustCompile(`(?i)^Precio\s+Unitario\s*`)
	leadingParenPattern = regexp.MustCompile(`^\(([^)]+)\)\s*`)
	shortNamePattern    = regexp.MustCompile(`\(?(\d{1,2})-(\d{1,2})\s+al\s+(\d{1,2})-(\d{1,2})\)?\s+(\d{4})`)
	fullNamePattern     = regexp.MustCompile(`\(?(\d{1,2})-(\d{1,2})-(\d{4})\s+al\s+(\d{1,2})-(\d{1,2})-(\d{4})\)?`)
)

// namedEvent is a promotion column identified by name instead of a range.
type namedEvent struct {
	match   string
	display *regexp.Regexp
	name    string
	start   time.Time
	end     time.Time
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// namedEvents is evaluated in order. Longer names that contain a shorter
// one must come first.
var namedEvents = []namedEvent{
	{"summer sale", regexp.MustCompile(`(?i)Summer Sale`), "Summer Sale", day(2025, 1, 1), day(2025, 2, 28)},
	{"hot week", regexp.MustCompile(`(?i)Hot Week`), "Hot Week", day(2025, 5, 1), day(2025, 5, 7)},
	{"pre hot sale 2", regexp.MustCompile(`(?i)Pre Hot Sale\s+2`), "Pre Hot Sale 2", day(2025, 4, 25), day(2025, 5, 5)},
	{"pre hot sale", regexp.MustCompile(`(?i)Pre Hot Sale`), "Pre Hot Sale", day(2025, 4, 20), day(2025, 4, 30)},
	{"post hotsale", regexp.MustCompile(`(?i)Post\s+HOTSALE`), "Post Hot Sale", day(2025, 5, 8), day(2025, 5, 15)},
	{"dia del niño", regexp.MustCompile(`(?i)Dia del Niño`), "Día del Niño", day(2025, 7, 20), day(2025, 8, 3)},
	{"liq julio", regexp.MustCompile(`(?i)Liq\s+Julio`), "Liquidación Julio", day(2025, 7, 1), day(2025, 7, 31)},
	{"pre cybersale", regexp.MustCompile(`(?i)Pre\s+CyberSale`), "Pre Cyber Sale", day(2025, 10, 1), day(2025, 10, 31)},
	{"blackfriday", regexp.MustCompile(`(?i)Blackfriday`), "Black Friday", day(2025, 11, 24), day(2025, 11, 30)},
	{"especial fiestas", regexp.MustCompile(`(?i)Especial\s+Fiestas`), "Especial Fiestas", day(2025, 12, 15), day(2025, 12, 31)},
	{"liquidacion enero/febrero 2026", regexp.MustCompile(`(?i)(Precio\s+)?LIQUIDACION\s+ENERO/FEBRERO\s+2026(\s+unitario\s+neto)?`), "Liquidación Enero/Febrero 2026", day(2026, 1, 1), day(2026, 2, 28)},
}

var spanishMonthAbbr = [...]string{"", "Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// IsPriceColumn reports whether a publications header holds prices.
func IsPriceColumn(header string) bool {
	return strings.Contains(header, "Precio") ||
		strings.Contains(header, "Evento") ||
		strings.Contains(header, "Sale") ||
		strings.Contains(header, "LIQUIDACION")
}

// ParsePeriodHeader turns a price column header into a promotional period.
// Headers without a recognisable range keep zero dates.
func ParsePeriodHeader(header string) *models.PromoPeriod {
	p := &models.PromoPeriod{Column: header, Name: cleanPeriodName(header)}
	p.Start, p.End = periodRange(header)
	return p
}

func periodRange(header string) (time.Time, time.Time) {
	if m := shortRangePattern.FindStringSubmatch(header); m != nil {
		d1, m1, d2, m2, y := atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5])
		endYear := y
		if m2 < m1 {
			endYear++
		}
		start, ok1 := validDay(y, m1, d1)
		end, ok2 := validDay(endYear, m2, d2)
		if ok1 && ok2 {
			return start, end
		}
	}
	if m := fullRangePattern.FindStringSubmatch(header); m != nil {
		start, ok1 := validDay(atoi(m[3]), atoi(m[2]), atoi(m[1]))
		end, ok2 := validDay(atoi(m[6]), atoi(m[5]), atoi(m[4]))
		if ok1 && ok2 {
			return start, end
		}
	}

	lower := strings.ToLower(header)
	for _, e := range namedEvents {
		if strings.Contains(lower, e.match) {
			return e.start, e.end
		}
	}
	return time.Time{}, time.Time{}
}

// cleanPeriodName builds the display name used in report sheets.
func cleanPeriodName(header string) string {
	name := strings.TrimSpace(pricePrefixPattern.ReplaceAllString(header, ""))
	name = leadingParenPattern.ReplaceAllString(name, "$1 ")

	for _, e := range namedEvents {
		if e.display.MatchString(name) {
			name = collapseSpaces(e.display.ReplaceAllString(name, e.name))
			if !hasDayMonth(name) {
				return name
			}
			break
		}
	}

	if m := fullNamePattern.FindStringSubmatch(name); m != nil {
		return fmt.Sprintf("%s %s %s - %s %s %s", m[1], monthAbbr(m[2]), m[3], m[4], monthAbbr(m[5]), m[6])
	}
	if m := shortNamePattern.FindStringSubmatch(name); m != nil {
		return fmt.Sprintf("%s %s - %s %s %s", m[1], monthAbbr(m[2]), m[3], monthAbbr(m[4]), m[5])
	}

	name = collapseSpaces(strings.NewReplacer("(", "", ")", "").Replace(name))
	if name == "" {
		return header
	}
	return name
}

var dayMonthPattern = regexp.MustCompile(`\d{1,2}\s+(Ene|Feb|Mar|Abr|May|Jun|Jul|Ago|Sep|Oct|Nov|Dic)`)

func hasDayMonth(s string) bool {
	return dayMonthPattern.MatchString(s)
}

func monthAbbr(mm string) string {
	n := atoi(mm)
	if n < 1 || n > 12 {
		return mm
	}
	return spanishMonthAbbr[n]
}

func validDay(y, m, d int) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := day(y, time.Month(m), d)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
