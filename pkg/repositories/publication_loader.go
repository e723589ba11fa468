package repositories

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
)

const colPublicationSKU = "sku"

// LoadPublications reads the published price grid. Every price column
// becomes a period; undated periods sort after dated ones.
func (r *inputRepository) LoadPublications(ctx context.Context, in config.InputFile) (*models.Publications, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := ReadTable(in.Path, colPublicationSKU)
	if err != nil {
		return nil, fmt.Errorf("failed to load publications: %w", err)
	}

	pubs := &models.Publications{}
	for _, col := range t.Columns {
		if IsPriceColumn(col) {
			pubs.Periods = append(pubs.Periods, ParsePeriodHeader(col))
		}
	}
	sort.SliceStable(pubs.Periods, func(i, j int) bool {
		a, b := pubs.Periods[i], pubs.Periods[j]
		if a.Dated() != b.Dated() {
			return a.Dated()
		}
		return a.Start.Before(b.Start)
	})

	undated := 0
	for _, p := range pubs.Periods {
		if !p.Dated() {
			undated++
		}
	}

	for _, row := range t.Rows {
		sku := parse.Key(row.Get(colPublicationSKU))
		if sku == "" {
			continue
		}
		for _, period := range pubs.Periods {
			price := parse.Decimal(row.Get(period.Column))
			if !price.IsPositive() {
				continue
			}
			pubs.Prices = append(pubs.Prices, &models.PublishedPrice{
				SKU:    sku,
				Period: period,
				Price:  price,
			})
		}
	}

	r.logger.Info("Loaded publications",
		zap.String("path", in.Path),
		zap.Int("periods", len(pubs.Periods)),
		zap.Int("undated_periods", undated),
		zap.Int("prices", len(pubs.Prices)))

	return pubs, nil
}
