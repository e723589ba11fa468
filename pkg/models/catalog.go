package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogEntry is static reference data for one product from the platform
// catalog. It is reachable by SKU and by ERP reference.
type CatalogEntry struct {
	SKU    string `json:"sku"`
	ERPRef string `json:"erp_ref"`
	Name   string `json:"name"`
	Brand  string `json:"brand"`

	Category     string `json:"category"`
	LeafCategory string `json:"leaf_category"`

	// PackQty is the number of units per commercial case. Zero means unknown
	// and must not be used as a divisor.
	PackQty int `json:"pack_qty"`

	FOB              decimal.Decimal `json:"fob"`
	PlatformPrice    decimal.Decimal `json:"platform_price"`
	PlatformBoxPrice decimal.Decimal `json:"platform_box_price"`
	BoxVolume        decimal.Decimal `json:"box_volume"`

	LastImportDate  time.Time `json:"last_import_date"`
	ImportClass     string    `json:"import_class"`
	LastReceiptDate time.Time `json:"last_receipt_date"`
	ReceiptClass    string    `json:"receipt_class"`

	// Day counts baked into the extract when it was produced. Used only
	// when the corresponding date is missing.
	DaysSinceImport  *int `json:"days_since_import,omitempty"`
	DaysSinceReceipt *int `json:"days_since_receipt,omitempty"`

	BrandType string    `json:"brand_type"`
	EAN       string    `json:"ean"`
	CreatedAt time.Time `json:"created_at"`
}

// HasPackQty reports whether PackQty is usable as a divisor.
func (c *CatalogEntry) HasPackQty() bool {
	return c != nil && c.PackQty > 0
}

// CEGPrice is one row of the importer's price list.
type CEGPrice struct {
	SKU            string          `json:"sku"`
	Code           string          `json:"code"`
	BrandName      string          `json:"brand_name"`
	CategoryName   string          `json:"category_name"`
	LastImportDate time.Time       `json:"last_import_date"`
	BasePrice      decimal.Decimal `json:"base_price"`
	FOB            decimal.Decimal `json:"fob"`
}

// TUPriceMarkup converts a platform price into the reseller's normal price.
var TUPriceMarkup = decimal.RequireFromString("1.25")

// NormalTUPrice returns the reseller's normal selling price for a platform price.
func NormalTUPrice(platform decimal.Decimal) decimal.Decimal {
	return platform.Mul(TUPriceMarkup)
}
