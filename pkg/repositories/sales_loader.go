package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/apperrors"
	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
)

// Sales export columns.
const (
	colOrderNumber      = "Número de Orden"
	colOrderID          = "ID Orden"
	colCreatedAt        = "Fecha Creación"
	colStatus           = "Estado"
	colCustomerEmail    = "Email Cliente"
	colCustomerFirst    = "Nombre Cliente"
	colCustomerLast     = "Apellido Cliente"
	colCustomerTaxID    = "CUIT Cliente"
	colOrderTotal       = "Total Orden"
	colSKU              = "SKU"
	colProductName      = "Nombre Producto"
	colQuantity         = "Cantidad"
	colUnitQuantity     = "Cantidad Unitarias"
	colOriginalPrice    = "Precio Original"
	colSalePrice        = "Precio Venta"
	colPriceWithTax     = "Precio con IVA"
	colDiscountPct      = "Descuento % Item"
	colLineTotal        = "Total Item"
	colLineTotalWithTax = "Total Item con IVA"
	colCategory         = "Categoría (2° Nivel)"
	colCategories       = "Categorías"
	colLineVolume       = "Volumen del Item"
)

var salesRequired = []string{
	colOrderNumber,
	colCreatedAt,
	colCustomerEmail,
	colSKU,
	colQuantity,
	colSalePrice,
	colLineTotalWithTax,
}

// LoadSales reads the sales export.
func (r *inputRepository) LoadSales(ctx context.Context, in config.InputFile) ([]*models.SalesLineItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := ReadTable(in.Path, salesRequired...)
	if err != nil {
		if errors.Is(err, apperrors.ErrMissingFile) {
			r.logger.Warn("Sales export not found, continuing with no sales",
				zap.String("path", in.Path))
			return []*models.SalesLineItem{}, nil
		}
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	format := in.Format()
	lines := make([]*models.SalesLineItem, 0, len(t.Rows))
	badDates := 0
	for _, row := range t.Rows {
		line := &models.SalesLineItem{
			OrderID:           row.Get(colOrderNumber, colOrderID),
			Status:            row.Get(colStatus),
			CustomerEmail:     parse.Email(row.Get(colCustomerEmail)),
			CustomerFirstName: row.Get(colCustomerFirst),
			CustomerLastName:  row.Get(colCustomerLast),
			CustomerTaxID:     row.Get(colCustomerTaxID),
			SKU:               row.Get(colSKU),
			ProductName:       row.Get(colProductName),
			Category:          row.Get(colCategory, colCategories),
			Cases:             parse.Decimal(row.Get(colQuantity)),
			Units:             parse.Decimal(row.Get(colUnitQuantity)),
			OriginalPrice:     parse.Decimal(row.Get(colOriginalPrice)),
			SalePrice:         parse.Decimal(row.Get(colSalePrice)),
			PriceWithTax:      parse.Decimal(row.Get(colPriceWithTax)),
			DiscountPct:       parse.Decimal(row.Get(colDiscountPct)),
			LineTotal:         parse.Decimal(row.Get(colLineTotal)),
			LineTotalWithTax:  parse.Decimal(row.Get(colLineTotalWithTax)),
			OrderTotal:        parse.Decimal(row.Get(colOrderTotal)),
			Volume:            parse.Decimal(row.Get(colLineVolume)),
		}
		if raw := row.Get(colCreatedAt); raw != "" {
			if d, ok := parse.Date(raw, format); ok {
				line.OrderDate = d
			} else {
				badDates++
			}
		}
		lines = append(lines, line)
	}

	r.logger.Info("Loaded sales export",
		zap.String("path", in.Path),
		zap.Int("lines", len(lines)),
		zap.Int("unparseable_dates", badDates))

	return lines, nil
}
