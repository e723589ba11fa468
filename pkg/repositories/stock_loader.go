package repositories

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
)

// ERP stock snapshot columns.
const (
	colStockRef    = "D365 Reference"
	colStockName   = "Nombre"
	colStockCases  = "Pronosticado con pendiente"
	colStockBoxQty = "Box Qty"
	colStockVolume = "Volumen"
)

var stockRequired = []string{colStockRef, colStockCases}

// LoadStock reads the ERP stock snapshot.
func (r *inputRepository) LoadStock(ctx context.Context, in config.InputFile) (*models.Inventory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := ReadTable(in.Path, stockRequired...)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}

	snapshots := make([]*models.StockSnapshot, 0, len(t.Rows))
	skipped := 0
	for _, row := range t.Rows {
		ref := row.Get(colStockRef)
		cases := parse.Decimal(row.Get(colStockCases))
		if ref == "" || cases.IsZero() {
			skipped++
			continue
		}
		snapshots = append(snapshots, &models.StockSnapshot{
			ERPRef:        ref,
			Name:          row.Get(colStockName),
			Cases:         cases,
			UnitsPerCase:  parse.Int(row.Get(colStockBoxQty)),
			VolumePerCase: parse.Decimal(row.Get(colStockVolume)),
		})
	}

	inv := models.NewInventory(snapshots)
	r.logger.Info("Loaded stock snapshot",
		zap.String("path", in.Path),
		zap.Int("references", len(inv.Snapshots)),
		zap.Int("skipped", skipped))

	return inv, nil
}
