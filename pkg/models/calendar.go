package models

import (
	"strings"
	"time"
)

// CalendarEvent is one row of the commercial calendar.
type CalendarEvent struct {
	Month        time.Month `json:"month"`
	MonthName    string     `json:"month_name"`
	Name         string     `json:"name"`
	ActionType   string     `json:"action_type"`
	Objective    string     `json:"objective"`
	BusinessUnit string     `json:"business_unit"`
}

var spanishMonths = map[string]time.Month{
	"ENERO": time.January, "FEBRERO": time.February, "MARZO": time.March,
	"ABRIL": time.April, "MAYO": time.May, "JUNIO": time.June,
	"JULIO": time.July, "AGOSTO": time.August, "SEPTIEMBRE": time.September,
	"SETIEMBRE": time.September, "OCTUBRE": time.October,
	"NOVIEMBRE": time.November, "DICIEMBRE": time.December,
}

// MonthFromSpanish maps an upper- or lower-case Spanish month name to its
// number. The second value is false for unknown names.
func MonthFromSpanish(name string) (time.Month, bool) {
	m, ok := spanishMonths[strings.ToUpper(strings.TrimSpace(name))]
	return m, ok
}
