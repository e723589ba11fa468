package services

import (
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/models"
)

// ActiveStatuses are the order statuses counted as real sales.
var ActiveStatuses = map[string]bool{
	models.StatusDelivered:  true,
	models.StatusComplete:   true,
	models.StatusPending:    true,
	models.StatusProcessing: true,
	models.StatusInTransit:  true,
}

// FilterActiveOrders keeps the lines whose order status is active.
func FilterActiveOrders(lines []*models.SalesLineItem, logger *zap.Logger) []*models.SalesLineItem {
	out := make([]*models.SalesLineItem, 0, len(lines))
	dropped := make(map[string]int)
	for _, line := range lines {
		if ActiveStatuses[line.Status] {
			out = append(out, line)
			continue
		}
		dropped[line.Status]++
	}

	fields := []zap.Field{
		zap.Int("kept", len(out)),
		zap.Int("dropped", len(lines)-len(out)),
	}
	for status, n := range dropped {
		fields = append(fields, zap.Int("dropped_"+status, n))
	}
	logger.Info("Filtered active orders", fields...)

	return out
}
