package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
)

// maxLoggedUnmatched caps how many unmatched keys are printed in full.
const maxLoggedUnmatched = 20

// EnrichmentService joins sales lines with the catalog, price list and stock.
type EnrichmentService interface {
	// Enrich returns one enriched line per input line, in input order, and
	// the join summary. Lines that match nothing are kept with empty
	// enrichment fields.
	Enrich(lines []*models.SalesLineItem) ([]*models.EnrichedLine, *models.JoinReport)
}

type enrichmentService struct {
	catalog       *models.Catalog
	prices        *models.PriceList
	stock         *models.Inventory
	referenceDate time.Time
	logger        *zap.Logger
}

// NewEnrichmentService creates an enricher bound to the lookup tables of one run.
func NewEnrichmentService(
	catalog *models.Catalog,
	prices *models.PriceList,
	stock *models.Inventory,
	referenceDate time.Time,
	logger *zap.Logger,
) EnrichmentService {
	return &enrichmentService{
		catalog:       catalog,
		prices:        prices,
		stock:         stock,
		referenceDate: referenceDate,
		logger:        logger.Named("enricher"),
	}
}

func (s *enrichmentService) Enrich(lines []*models.SalesLineItem) ([]*models.EnrichedLine, *models.JoinReport) {
	report := models.NewJoinReport()
	out := make([]*models.EnrichedLine, 0, len(lines))

	for _, line := range lines {
		report.Lines++
		e := &models.EnrichedLine{SalesLineItem: *line, Category: line.Category}

		key := parse.Key(line.SKU)
		if key == "" {
			report.BlankSKU++
			s.derive(e)
			out = append(out, e)
			continue
		}

		e.Catalog = s.catalog.BySKU(key)
		e.CEG = s.prices.BySKU(key)
		if e.Catalog != nil {
			report.CatalogMatched++
			e.Stock = s.stock.ByERPRef(e.Catalog.ERPRef)
			if e.Stock != nil {
				report.StockMatched++
			}
		}
		if e.CEG != nil {
			report.CEGMatched++
		}
		if !e.Matched() {
			report.Unmatched[key] = struct{}{}
		}

		s.derive(e)
		out = append(out, e)
	}

	s.logReport(report)
	return out, report
}

// derive fills every computed field of e from its attached records.
func (s *enrichmentService) derive(e *models.EnrichedLine) {
	cat, ceg := e.Catalog, e.CEG

	switch {
	case ceg != nil && ceg.BrandName != "":
		e.Brand = ceg.BrandName
	case cat != nil:
		e.Brand = cat.Brand
	}
	switch {
	case cat != nil && cat.Category != "":
		e.Category = cat.Category
	case e.Category == "" && ceg != nil:
		e.Category = ceg.CategoryName
	}

	e.FOB, e.PlatformPrice = CostBasis(cat, ceg)

	if cat.HasPackQty() {
		pack := decimal.NewFromInt(int64(cat.PackQty))
		e.UnitOriginalPrice = decimal.NewNullDecimal(e.OriginalPrice.Div(pack))
		e.UnitSalePrice = decimal.NewNullDecimal(e.SalePrice.Div(pack))
		e.UnitPriceWithTax = decimal.NewNullDecimal(e.PriceWithTax.Div(pack))
		e.UnitQuantity = e.Cases.Mul(pack)
	} else {
		e.UnitQuantity = e.Units
	}

	price := decimal.Zero
	if e.UnitSalePrice.Valid {
		price = e.UnitSalePrice.Decimal
	}
	e.MarginFOB, e.MarginFOBPct = Margin(price, e.FOB)
	e.MarginPlatform, e.MarginPlatformPct = Margin(price, e.PlatformPrice)
	e.PurchaseOverFOBPct = PurchaseOverPct(price, e.FOB)
	e.PurchaseOverPlatformPct = PurchaseOverPct(price, e.PlatformPrice)

	e.ComputedDiscountPct = ComputedDiscount(e.OriginalPrice, e.SalePrice)
	e.EffectiveDiscountPct = EffectiveDiscount(e.DiscountPct, e.ComputedDiscountPct)

	if cat != nil {
		e.DaysSinceImport = DaysSince(s.referenceDate, cat.LastImportDate, cat.DaysSinceImport)
		e.DaysSinceReceipt = DaysSince(s.referenceDate, cat.LastReceiptDate, cat.DaysSinceReceipt)
	}
	if e.DaysSinceImport == nil && ceg != nil {
		e.DaysSinceImport = DaysSince(s.referenceDate, ceg.LastImportDate, nil)
	}
	e.Risk = ClassifyCatalogRisk(cat, e.DaysSinceReceipt, e.DaysSinceImport)
}

// CostBasis picks the FOB and platform unit prices: the price list wins
// when it carries a positive value, the catalog fills the rest.
func CostBasis(cat *models.CatalogEntry, ceg *models.CEGPrice) (fob, platform decimal.Decimal) {
	if cat != nil {
		fob, platform = cat.FOB, cat.PlatformPrice
	}
	if ceg != nil {
		if ceg.FOB.IsPositive() {
			fob = ceg.FOB
		}
		if ceg.BasePrice.IsPositive() {
			platform = ceg.BasePrice
		}
	}
	return fob, platform
}

// DaysSince returns the whole days from date to ref. When date is zero the
// fallback count is returned as is.
func DaysSince(ref, date time.Time, fallback *int) *int {
	if date.IsZero() {
		return fallback
	}
	d := parse.DaysBetween(date, ref)
	return &d
}

func (s *enrichmentService) logReport(r *models.JoinReport) {
	keys := make([]string, 0, len(r.Unmatched))
	for k := range r.Unmatched {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Print every key when there are few, otherwise a sample of the first ten.
	sample := keys
	if len(keys) > maxLoggedUnmatched {
		sample = keys[:10]
	}

	s.logger.Info("Joined sales with reference data",
		zap.Int("lines", r.Lines),
		zap.Int("catalog_matched", r.CatalogMatched),
		zap.Int("price_list_matched", r.CEGMatched),
		zap.Int("stock_matched", r.StockMatched),
		zap.Int("blank_sku", r.BlankSKU),
		zap.Int("unmatched_skus", r.UnmatchedCount()),
		zap.Strings("unmatched_sample", sample))
}
