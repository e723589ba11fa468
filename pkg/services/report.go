package services

import (
	"time"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/workbook"
)

// ReportData is every artifact a report builder may read. Builders declare
// the artifacts they need through Requires; the others may be nil.
type ReportData struct {
	ReferenceDate time.Time

	Lines     []*models.EnrichedLine
	Join      *models.JoinReport
	Customers []*models.CustomerAggregate

	Catalog *models.Catalog
	Prices  *models.PriceList
	Stock   *models.Inventory

	Events          []*models.CalendarEvent
	EventCategories config.EventCategoryTable
	Publications    *models.Publications
}

// ReportBuilder turns the run's artifacts into one workbook.
type ReportBuilder interface {
	// Report is the report family name used in configuration.
	Report() string
	// Requires lists the artifacts the builder reads.
	Requires() []string
	// Build produces the workbook. It never modifies data.
	Build(data *ReportData) (*workbook.Workbook, error)
}

// topN returns at most n leading elements of s.
func topN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
