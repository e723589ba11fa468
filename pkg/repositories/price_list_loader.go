package repositories

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
)

// Importer price list columns.
const (
	colCEGSKU        = "sku"
	colCEGCode       = "code"
	colCEGBrand      = "brand_name"
	colCEGCategory   = "category_name"
	colCEGLastImport = "last_importation_date"
	colCEGBasePrice  = "base_price"
	colCEGFOB        = "fob"
)

var priceListRequired = []string{colCEGSKU, colCEGBasePrice, colCEGFOB}

// LoadPriceList reads the importer's price list.
func (r *inputRepository) LoadPriceList(ctx context.Context, in config.InputFile) (*models.PriceList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := ReadTable(in.Path, priceListRequired...)
	if err != nil {
		return nil, fmt.Errorf("failed to load price list: %w", err)
	}

	format := in.Format()
	prices := make([]*models.CEGPrice, 0, len(t.Rows))
	for _, row := range t.Rows {
		sku := row.Get(colCEGSKU)
		if sku == "" {
			continue
		}
		p := &models.CEGPrice{
			SKU:          sku,
			Code:         row.Get(colCEGCode),
			BrandName:    row.Get(colCEGBrand),
			CategoryName: row.Get(colCEGCategory),
			BasePrice:    parse.Decimal(row.Get(colCEGBasePrice)),
			FOB:          parse.Decimal(row.Get(colCEGFOB)),
		}
		p.LastImportDate, _ = parse.Date(row.Get(colCEGLastImport), format)
		prices = append(prices, p)
	}

	r.logger.Info("Loaded price list",
		zap.String("path", in.Path),
		zap.Int("prices", len(prices)))

	return models.NewPriceList(prices), nil
}
