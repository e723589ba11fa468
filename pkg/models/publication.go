package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromoPeriod is one promotional price column of the publications file.
// Start and End are zero when the header carries no recognisable range.
type PromoPeriod struct {
	Column string    `json:"column"`
	Name   string    `json:"name"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Dated reports whether the period has a usable date range.
func (p *PromoPeriod) Dated() bool {
	return !p.Start.IsZero() && !p.End.IsZero()
}

// Contains reports whether t falls inside the period, both ends inclusive.
func (p *PromoPeriod) Contains(t time.Time) bool {
	if !p.Dated() || t.IsZero() {
		return false
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(p.Start) && !day.After(p.End)
}

// PublishedPrice is the price a SKU was published at during one period.
type PublishedPrice struct {
	SKU    string          `json:"sku"`
	Period *PromoPeriod    `json:"period"`
	Price  decimal.Decimal `json:"price"`
}

// Publications is the parsed published price grid: every promotional
// period found in the header and every positive price under it.
type Publications struct {
	Periods []*PromoPeriod    `json:"periods"`
	Prices  []*PublishedPrice `json:"prices"`
}
