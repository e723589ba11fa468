package repositories

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
)

// Platform catalog columns.
const (
	colCatalogSKU       = "sku"
	colERPRef           = "Código de Producto (D365)"
	colCatalogName      = "Nombre del Producto"
	colBrand            = "Marca"
	colLeafCategory     = "Categoría (Ultimo Nivel)"
	colPackQty          = "Cantidad por Paquete Comercial"
	colFOBUnit          = "Costo FOB (Unitario)"
	colPlatformUnit     = "Precio Plataforma (Unitario) - CEG"
	colPlatformBox      = "Precio Plataforma (Caja) - CEG"
	colBoxVolume        = "Volumen (box)"
	colLastImport       = "Fecha de última importación CEG"
	colImportClass      = "Clasificacion IMPO"
	colLastReceipt      = "Fecha de última recepción CEG"
	colReceiptClass     = "Clasificacion RECEP"
	colDaysSinceImport  = "Días desde última impo CEG"
	colDaysSinceReceipt = "Días desde última recep CEG"
	colBrandType        = "Tipo de Marca"
	colEAN              = "EAN"
	colCatalogCreatedAt = "Fecha de Creación (Magento)"
)

var catalogRequired = []string{colCatalogSKU, colERPRef, colPackQty}

// LoadCatalog reads the platform catalog.
func (r *inputRepository) LoadCatalog(ctx context.Context, in config.InputFile) (*models.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := ReadTable(in.Path, catalogRequired...)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	format := in.Format()
	entries := make([]*models.CatalogEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		sku := row.Get(colCatalogSKU)
		if sku == "" {
			continue
		}
		e := &models.CatalogEntry{
			SKU:              sku,
			ERPRef:           row.Get(colERPRef),
			Name:             row.Get(colCatalogName),
			Brand:            row.Get(colBrand),
			Category:         row.Get(colCategory),
			LeafCategory:     row.Get(colLeafCategory),
			PackQty:          parse.Int(row.Get(colPackQty)),
			FOB:              parse.Decimal(row.Get(colFOBUnit)),
			PlatformPrice:    parse.Decimal(row.Get(colPlatformUnit)),
			PlatformBoxPrice: parse.Decimal(row.Get(colPlatformBox)),
			BoxVolume:        parse.Decimal(row.Get(colBoxVolume)),
			ImportClass:      row.Get(colImportClass),
			ReceiptClass:     row.Get(colReceiptClass),
			DaysSinceImport:  optionalInt(row.Get(colDaysSinceImport)),
			DaysSinceReceipt: optionalInt(row.Get(colDaysSinceReceipt)),
			BrandType:        row.Get(colBrandType),
			EAN:              row.Get(colEAN),
		}
		e.LastImportDate, _ = parse.Date(row.Get(colLastImport), format)
		e.LastReceiptDate, _ = parse.Date(row.Get(colLastReceipt), format)
		e.CreatedAt, _ = parse.Date(row.Get(colCatalogCreatedAt), format)
		entries = append(entries, e)
	}

	r.logger.Info("Loaded catalog",
		zap.String("path", in.Path),
		zap.Int("entries", len(entries)))

	return models.NewCatalog(entries), nil
}

// optionalInt returns nil for a blank or non-numeric cell.
func optionalInt(s string) *int {
	d := parse.NullDecimal(s)
	if !d.Valid {
		return nil
	}
	v := int(d.Decimal.IntPart())
	return &v
}
