package models

import "github.com/shopspring/decimal"

// RiskLevel is the three-level stock-age risk tag.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Bajo"
	RiskMedium RiskLevel = "Medio"
	RiskHigh   RiskLevel = "Alto"
)

// RiskSource tells which signal decided a StockRisk.
type RiskSource string

const (
	RiskSourceReceiptText RiskSource = "receipt_text"
	RiskSourceImportText  RiskSource = "import_text"
	RiskSourceReceiptDays RiskSource = "receipt_days"
	RiskSourceImportDays  RiskSource = "import_days"
	RiskSourceNone        RiskSource = "none"
)

// StockRisk is the outcome of the stock-age classifier.
type StockRisk struct {
	Label  string     `json:"label"`
	Level  RiskLevel  `json:"level"`
	Source RiskSource `json:"source"`
}

// EnrichedLine is a SalesLineItem with the catalog, price list and stock
// data attached and every derived metric computed. Nil pointers mean the
// lookup did not match; invalid NullDecimals mean the metric is unknown.
type EnrichedLine struct {
	SalesLineItem

	Catalog *CatalogEntry  `json:"catalog,omitempty"`
	CEG     *CEGPrice      `json:"ceg,omitempty"`
	Stock   *StockSnapshot `json:"stock,omitempty"`

	// Brand comes from the price list, then the catalog. Category comes
	// from the catalog, then the export, then the price list.
	Brand    string `json:"brand"`
	Category string `json:"category"`

	UnitOriginalPrice decimal.NullDecimal `json:"unit_original_price"`
	UnitSalePrice     decimal.NullDecimal `json:"unit_sale_price"`
	UnitPriceWithTax  decimal.NullDecimal `json:"unit_price_with_tax"`
	UnitQuantity      decimal.Decimal     `json:"unit_quantity"`

	// Cost bases actually used for the margin computation.
	FOB           decimal.Decimal `json:"fob"`
	PlatformPrice decimal.Decimal `json:"platform_price"`

	MarginFOB         decimal.NullDecimal `json:"margin_fob"`
	MarginFOBPct      decimal.NullDecimal `json:"margin_fob_pct"`
	MarginPlatform    decimal.NullDecimal `json:"margin_platform"`
	MarginPlatformPct decimal.NullDecimal `json:"margin_platform_pct"`

	PurchaseOverFOBPct      decimal.NullDecimal `json:"purchase_over_fob_pct"`
	PurchaseOverPlatformPct decimal.NullDecimal `json:"purchase_over_platform_pct"`

	ComputedDiscountPct  decimal.Decimal `json:"computed_discount_pct"`
	EffectiveDiscountPct decimal.Decimal `json:"effective_discount_pct"`

	DaysSinceImport  *int `json:"days_since_import,omitempty"`
	DaysSinceReceipt *int `json:"days_since_receipt,omitempty"`

	Risk StockRisk `json:"risk"`
}

// Matched reports whether the line found its product in the catalog or the
// price list.
func (e *EnrichedLine) Matched() bool {
	return e.Catalog != nil || e.CEG != nil
}

// JoinReport summarizes the key-join for operator visibility.
type JoinReport struct {
	Lines          int `json:"lines"`
	CatalogMatched int `json:"catalog_matched"`
	CEGMatched     int `json:"ceg_matched"`
	StockMatched   int `json:"stock_matched"`
	BlankSKU       int `json:"blank_sku"`

	// Unmatched holds the normalized SKUs found in neither catalog.
	Unmatched map[string]struct{} `json:"-"`
}

// NewJoinReport returns an empty report ready to accumulate.
func NewJoinReport() *JoinReport {
	return &JoinReport{Unmatched: make(map[string]struct{})}
}

// UnmatchedCount returns the number of distinct unmatched keys.
func (r *JoinReport) UnmatchedCount() int {
	return len(r.Unmatched)
}
