package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RFV segment labels, in rule priority order.
const (
	SegmentChampion = "Champion"
	SegmentLoyal    = "Loyal Customer"
	SegmentAtRisk   = "At Risk"
	SegmentNew      = "New Customer"
	SegmentLost     = "Lost Customer"
	SegmentRegular  = "Regular"
)

// Health labels.
const (
	HealthVeryHealthy    = "Muy Sano"
	HealthHealthy        = "Sano"
	HealthRegular        = "Regular"
	HealthNeedsAttention = "Requiere Atención"
)

// Purchase diversity labels.
const (
	DiversityVeryDiverse = "Muy Diversificado"
	DiversityDiverse     = "Diversificado"
	DiversitySpecialized = "Especializado"
)

// Inventory-age buyer labels.
const (
	InventoryFresh  = "Compra Fresco"
	InventoryOld    = "Compra Viejo"
	InventoryMixed  = "Mixto"
	InventoryNoData = "Sin Datos"
)

// Margin tier labels.
const (
	MarginTierVeryLow = "Oportunista (Muy Bajo Margen)"
	MarginTierLow     = "Oportunista (Bajo Margen)"
	MarginTierPremium = "Premium (Alto Margen)"
	MarginTierRegular = "Regular (Margen Estándar)"
	MarginTierNoData  = "Sin Datos de Margen"
)

// Volume versus margin labels.
const (
	VolumeMarginOpportunist = "Alto Volumen - Bajo Margen (Oportunista)"
	VolumeMarginIdeal       = "Alto Volumen - Alto Margen (Ideal)"
	VolumeMarginPotential   = "Bajo Volumen - Alto Margen (Potencial)"
	VolumeMarginRegular     = "Regular"
)

// CustomerAggregate folds every enriched line of one customer. It is derived
// on each run and never stored.
type CustomerAggregate struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	TaxID     string `json:"tax_id"`

	Orders     int             `json:"orders"`
	LTV        decimal.Decimal `json:"ltv"`
	Units      decimal.Decimal `json:"units"`
	UniqueSKUs int             `json:"unique_skus"`

	FirstPurchase    time.Time       `json:"first_purchase"`
	LastPurchase     time.Time       `json:"last_purchase"`
	DaysActive       int             `json:"days_active"`
	DaysSinceLast    int             `json:"days_since_last"`
	AvgTicket        decimal.Decimal `json:"avg_ticket"`
	MonthlyFrequency decimal.Decimal `json:"monthly_frequency"`
	Repeat           bool            `json:"repeat"`
	Healthy          bool            `json:"healthy"`

	FavoriteCategory string `json:"favorite_category"`
	FavoriteBrand    string `json:"favorite_brand"`

	DominantBrand         string          `json:"dominant_brand"`
	DominantBrandShare    decimal.Decimal `json:"dominant_brand_share"`
	BrandFan              bool            `json:"brand_fan"`
	DominantCategory      string          `json:"dominant_category"`
	DominantCategoryShare decimal.Decimal `json:"dominant_category_share"`
	VerticalLoyal         bool            `json:"vertical_loyal"`

	UniqueBrands     int    `json:"unique_brands"`
	UniqueCategories int    `json:"unique_categories"`
	Diversity        string `json:"diversity"`

	AvgDiscountPct     decimal.Decimal `json:"avg_discount_pct"`
	MaxDiscountPct     decimal.Decimal `json:"max_discount_pct"`
	DiscountedLinesPct decimal.Decimal `json:"discounted_lines_pct"`
	DiscountHunter     bool            `json:"discount_hunter"`

	AvgDaysSinceReceipt    decimal.NullDecimal `json:"avg_days_since_receipt"`
	MedianDaysSinceReceipt decimal.NullDecimal `json:"median_days_since_receipt"`
	InventoryAge           string              `json:"inventory_age"`

	AvgMarginFOBPct            decimal.NullDecimal `json:"avg_margin_fob_pct"`
	MedianMarginFOBPct         decimal.NullDecimal `json:"median_margin_fob_pct"`
	AvgMarginPlatformPct       decimal.NullDecimal `json:"avg_margin_platform_pct"`
	MedianMarginPlatformPct    decimal.NullDecimal `json:"median_margin_platform_pct"`
	AvgPurchaseOverFOBPct      decimal.NullDecimal `json:"avg_purchase_over_fob_pct"`
	AvgPurchaseOverPlatformPct decimal.NullDecimal `json:"avg_purchase_over_platform_pct"`
	EstimatedProfitFOB         decimal.Decimal     `json:"estimated_profit_fob"`
	EstimatedProfitPlatform    decimal.Decimal     `json:"estimated_profit_platform"`
	ProfitabilityFOBPct        decimal.NullDecimal `json:"profitability_fob_pct"`
	ProfitabilityPlatformPct   decimal.NullDecimal `json:"profitability_platform_pct"`
	MarginTier                 string              `json:"margin_tier"`
	Opportunist                bool                `json:"opportunist"`

	Segment string `json:"segment"`
	Health  string `json:"health"`

	// Rank by LTV (1 = highest) and the cumulative revenue share up to and
	// including this customer.
	Rank              int             `json:"rank"`
	CumulativeShare   decimal.Decimal `json:"cumulative_share"`
	Top80             bool            `json:"top_80"`
	VolumeMarginClass string          `json:"volume_margin_class"`
}

// FullName joins first and last name.
func (c *CustomerAggregate) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}
