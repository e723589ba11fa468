package services

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
)

var statusLabels = map[string]string{
	"closed":      models.StatusClosed,
	"complete":    models.StatusComplete,
	"processing":  models.StatusProcessing,
	"pending":     models.StatusPending,
	"canceled":    models.StatusCanceled,
	"delivered":   models.StatusDelivered,
	"in_transit":  models.StatusInTransit,
	"en_transito": models.StatusInTransit,
}

// NormalizeStatus maps an export status code to its Spanish label. Unknown
// codes are title-cased.
func NormalizeStatus(status string) string {
	s := strings.TrimSpace(status)
	if label, ok := statusLabels[strings.ToLower(s)]; ok {
		return label
	}
	return cases.Title(language.Spanish).String(s)
}

// CleanSales propagates order-level fields to every line of the order and
// normalizes status, customer names and tax ids. The export only fills the
// order fields on the first line of each order. Input lines are not modified.
func CleanSales(lines []*models.SalesLineItem, logger *zap.Logger) []*models.SalesLineItem {
	out := make([]*models.SalesLineItem, 0, len(lines))
	var current *models.SalesLineItem
	orders := 0

	for _, line := range lines {
		if line.OrderID != "" && (current == nil || line.OrderID != current.OrderID) {
			current = line
			orders++
		}

		cleaned := *line
		if current != nil {
			cleaned.OrderID = current.OrderID
			cleaned.OrderDate = current.OrderDate
			cleaned.Status = current.Status
			cleaned.CustomerEmail = current.CustomerEmail
			cleaned.CustomerFirstName = current.CustomerFirstName
			cleaned.CustomerLastName = current.CustomerLastName
			cleaned.CustomerTaxID = current.CustomerTaxID
			cleaned.OrderTotal = current.OrderTotal
		}

		cleaned.Status = NormalizeStatus(cleaned.Status)
		cleaned.CustomerEmail = parse.Email(cleaned.CustomerEmail)
		cleaned.CustomerFirstName = collapseSpaces(cleaned.CustomerFirstName)
		cleaned.CustomerLastName = collapseSpaces(cleaned.CustomerLastName)
		cleaned.CustomerTaxID = parse.TaxID(cleaned.CustomerTaxID)
		cleaned.SKU = collapseSpaces(cleaned.SKU)
		cleaned.ProductName = collapseSpaces(cleaned.ProductName)

		out = append(out, &cleaned)
	}

	logger.Info("Cleaned sales export",
		zap.Int("lines", len(out)),
		zap.Int("orders", orders))

	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
