package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status labels used after normalization of the export's status codes.
const (
	StatusClosed     = "Cerrada"
	StatusComplete   = "Completa"
	StatusProcessing = "Procesando"
	StatusPending    = "Pendiente"
	StatusCanceled   = "Cancelada"
	StatusDelivered  = "Entregado"
	StatusInTransit  = "En_Transito"
)

// SalesLineItem is one line of the sales export: a product sold within an
// order. Prices are per case as exported. Values are never modified after
// loading; derived fields live on EnrichedLine.
type SalesLineItem struct {
	OrderID   string    `json:"order_id"`
	OrderDate time.Time `json:"order_date"`
	Status    string    `json:"status"`

	CustomerEmail     string `json:"customer_email"`
	CustomerFirstName string `json:"customer_first_name"`
	CustomerLastName  string `json:"customer_last_name"`
	CustomerTaxID     string `json:"customer_tax_id"`

	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`

	Cases decimal.Decimal `json:"cases"`
	// Units is the exported unit count; zero when the export predates the
	// unit column.
	Units decimal.Decimal `json:"units"`

	OriginalPrice decimal.Decimal `json:"original_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	PriceWithTax  decimal.Decimal `json:"price_with_tax"`
	DiscountPct   decimal.Decimal `json:"discount_pct"`

	LineTotal        decimal.Decimal `json:"line_total"`
	LineTotalWithTax decimal.Decimal `json:"line_total_with_tax"`
	OrderTotal       decimal.Decimal `json:"order_total"`
	Volume           decimal.Decimal `json:"volume"`
}

// CustomerName joins first and last name.
func (s *SalesLineItem) CustomerName() string {
	switch {
	case s.CustomerFirstName == "":
		return s.CustomerLastName
	case s.CustomerLastName == "":
		return s.CustomerFirstName
	default:
		return s.CustomerFirstName + " " + s.CustomerLastName
	}
}
