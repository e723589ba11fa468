package repositories

import (
	"context"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
)

// InputRepository loads the pipeline's CSV inputs into typed records.
type InputRepository interface {
	// LoadSales reads the sales export. A missing file is logged and yields
	// an empty slice so reports can still be shaped.
	LoadSales(ctx context.Context, in config.InputFile) ([]*models.SalesLineItem, error)

	// LoadCatalog reads the platform catalog.
	LoadCatalog(ctx context.Context, in config.InputFile) (*models.Catalog, error)

	// LoadPriceList reads the importer's price list.
	LoadPriceList(ctx context.Context, in config.InputFile) (*models.PriceList, error)

	// LoadStock reads the ERP stock snapshot, skipping rows without cases.
	LoadStock(ctx context.Context, in config.InputFile) (*models.Inventory, error)

	// LoadCalendar reads the commercial calendar rows of one business unit.
	LoadCalendar(ctx context.Context, in config.InputFile, businessUnit string) ([]*models.CalendarEvent, error)

	// LoadPublications reads the published price grid.
	LoadPublications(ctx context.Context, in config.InputFile) (*models.Publications, error)
}

// inputRepository implements InputRepository on local CSV files.
type inputRepository struct {
	logger *zap.Logger
}

// NewInputRepository creates a new input repository.
func NewInputRepository(logger *zap.Logger) InputRepository {
	return &inputRepository{logger: logger.Named("loader")}
}
