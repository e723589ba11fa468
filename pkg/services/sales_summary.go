package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
)

// ProductSales summarizes the enriched sales of one SKU.
type ProductSales struct {
	SKU      string
	Name     string
	Brand    string
	Category string
	// CEGCategory is the price list's category, kept apart from Category.
	CEGCategory string

	Customers map[string]struct{}
	Orders    map[string]struct{}

	Cases          decimal.Decimal
	Units          decimal.Decimal
	Revenue        decimal.Decimal
	RevenueWithTax decimal.Decimal
	Volume         decimal.Decimal

	UnitPrices []decimal.Decimal
	BoxPrices  []decimal.Decimal
	LastSale   time.Time

	FOB           decimal.Decimal
	PlatformPrice decimal.Decimal

	MarginFOBPct      []decimal.Decimal
	MarginPlatformPct []decimal.Decimal
}

// AvgUnitPrice is revenue with tax divided by units, zero without units.
func (p *ProductSales) AvgUnitPrice() decimal.Decimal {
	if !p.Units.IsPositive() {
		return decimal.Zero
	}
	return p.RevenueWithTax.Div(p.Units)
}

// SalesBySKU folds lines into one summary per normalized SKU. Lines with a
// blank SKU are skipped. The map is returned with the SKUs in first-seen order.
func SalesBySKU(lines []*models.EnrichedLine) (map[string]*ProductSales, []string) {
	out := make(map[string]*ProductSales)
	var order []string

	for _, l := range lines {
		key := parse.Key(l.SKU)
		if key == "" {
			continue
		}
		p, ok := out[key]
		if !ok {
			p = &ProductSales{
				SKU:       key,
				Customers: make(map[string]struct{}),
				Orders:    make(map[string]struct{}),
			}
			out[key] = p
			order = append(order, key)
		}

		if p.Name == "" {
			p.Name = l.ProductName
		}
		if p.Brand == "" {
			p.Brand = l.Brand
		}
		if p.Category == "" {
			p.Category = l.Category
		}
		if p.CEGCategory == "" && l.CEG != nil {
			p.CEGCategory = l.CEG.CategoryName
		}
		if !p.FOB.IsPositive() {
			p.FOB = l.FOB
		}
		if !p.PlatformPrice.IsPositive() {
			p.PlatformPrice = l.PlatformPrice
		}

		if email := parse.Email(l.CustomerEmail); email != "" {
			p.Customers[email] = struct{}{}
		}
		if l.OrderID != "" {
			p.Orders[l.OrderID] = struct{}{}
		}

		p.Cases = p.Cases.Add(l.Cases)
		p.Units = p.Units.Add(l.UnitQuantity)
		p.Revenue = p.Revenue.Add(l.LineTotal)
		p.RevenueWithTax = p.RevenueWithTax.Add(l.LineTotalWithTax)
		p.Volume = p.Volume.Add(l.Volume)

		if l.UnitSalePrice.Valid && l.UnitSalePrice.Decimal.IsPositive() {
			p.UnitPrices = append(p.UnitPrices, l.UnitSalePrice.Decimal)
		}
		if l.SalePrice.IsPositive() {
			p.BoxPrices = append(p.BoxPrices, l.SalePrice)
		}
		if l.OrderDate.After(p.LastSale) {
			p.LastSale = l.OrderDate
		}
		if l.MarginFOBPct.Valid {
			p.MarginFOBPct = append(p.MarginFOBPct, l.MarginFOBPct.Decimal)
		}
		if l.MarginPlatformPct.Valid {
			p.MarginPlatformPct = append(p.MarginPlatformPct, l.MarginPlatformPct.Decimal)
		}
	}

	return out, order
}

// MinMax returns the smallest and largest value, zero when values is empty.
func MinMax(values []decimal.Decimal) (lo, hi decimal.Decimal) {
	if len(values) == 0 {
		return decimal.Zero, decimal.Zero
	}
	return decimal.Min(values[0], values[1:]...), decimal.Max(values[0], values[1:]...)
}
