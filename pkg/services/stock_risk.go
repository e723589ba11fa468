package services

import (
	"strings"

	"github.com/tradeunity/salesintel/pkg/models"
)

// Stock-age labels.
const (
	StockRecent     = "Reciente"
	StockRecent2024 = "Reciente 2024"
	Stock2024       = "2024"
	StockMidTerm    = "Medio Plazo"
	StockOld        = "Antiguo"
	StockNoDate     = "Sin Fecha"
)

var stockLevels = map[string]models.RiskLevel{
	StockRecent:     models.RiskLow,
	StockRecent2024: models.RiskLow,
	Stock2024:       models.RiskMedium,
	StockMidTerm:    models.RiskMedium,
	StockOld:        models.RiskHigh,
	StockNoDate:     models.RiskHigh,
}

// unclassified is the fallback of the textual list. It never leaves the
// classifier: it means "try the next signal".
const unclassified = ""

// textualStockAge classifies the catalog's free-text classification columns.
var textualStockAge = NewDecisionList(unclassified,
	Rule[string]{StockRecent, func(s string) bool {
		return strings.Contains(s, "2025") || strings.Contains(s, "2026")
	}},
	Rule[string]{StockRecent2024, func(s string) bool {
		return strings.Contains(s, "2024") &&
			(strings.Contains(s, "Septiembre a Diciembre") || strings.Contains(s, "Agosto o Después"))
	}},
	Rule[string]{Stock2024, func(s string) bool { return strings.Contains(s, "2024") }},
	Rule[string]{StockOld, func(s string) bool {
		return strings.Contains(s, "2023") || strings.Contains(s, "Previo")
	}},
)

// dayCountStockAge classifies a days-since count.
var dayCountStockAge = NewDecisionList(StockOld,
	Rule[int]{StockRecent, func(d int) bool { return d <= 90 }},
	Rule[int]{StockMidTerm, func(d int) bool { return d <= 365 }},
)

// ClassifyStockRisk tags stock age and risk. Signals are tried in order:
// receipt text, import text, days since receipt, days since import. The
// catalog texts are authoritative over the day counts.
func ClassifyStockRisk(receiptClass, importClass string, daysSinceReceipt, daysSinceImport *int) models.StockRisk {
	texts := []struct {
		text   string
		source models.RiskSource
	}{
		{strings.TrimSpace(receiptClass), models.RiskSourceReceiptText},
		{strings.TrimSpace(importClass), models.RiskSourceImportText},
	}
	for _, t := range texts {
		if t.text == "" {
			continue
		}
		if label := textualStockAge.Classify(t.text); label != unclassified {
			return stockRisk(label, t.source)
		}
	}

	if daysSinceReceipt != nil {
		return stockRisk(dayCountStockAge.Classify(*daysSinceReceipt), models.RiskSourceReceiptDays)
	}
	if daysSinceImport != nil {
		return stockRisk(dayCountStockAge.Classify(*daysSinceImport), models.RiskSourceImportDays)
	}
	return stockRisk(StockNoDate, models.RiskSourceNone)
}

// ClassifyCatalogRisk runs ClassifyStockRisk on a catalog entry with the
// given day counts.
func ClassifyCatalogRisk(e *models.CatalogEntry, daysSinceReceipt, daysSinceImport *int) models.StockRisk {
	if e == nil {
		return ClassifyStockRisk("", "", daysSinceReceipt, daysSinceImport)
	}
	return ClassifyStockRisk(e.ReceiptClass, e.ImportClass, daysSinceReceipt, daysSinceImport)
}

func stockRisk(label string, source models.RiskSource) models.StockRisk {
	return models.StockRisk{Label: label, Level: stockLevels[label], Source: source}
}
