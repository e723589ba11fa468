package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradeunity/salesintel/pkg/models"
)

func TestClassifyStockRisk(t *testing.T) {
	tests := []struct {
		name             string
		receiptClass     string
		importClass      string
		daysSinceReceipt *int
		daysSinceImport  *int
		wantLabel        string
		wantLevel        models.RiskLevel
		wantSource       models.RiskSource
	}{
		{"receipt text 2025", "Recepción 2025", "", nil, nil, StockRecent, models.RiskLow, models.RiskSourceReceiptText},
		{"late 2024 is recent", "2024 Septiembre a Diciembre", "", nil, nil, StockRecent2024, models.RiskLow, models.RiskSourceReceiptText},
		{"august or later 2024", "2024 Agosto o Después", "", nil, nil, StockRecent2024, models.RiskLow, models.RiskSourceReceiptText},
		{"plain 2024", "Enero 2024", "", nil, nil, Stock2024, models.RiskMedium, models.RiskSourceReceiptText},
		{"previous years", "Previo 2023", "", nil, nil, StockOld, models.RiskHigh, models.RiskSourceReceiptText},
		{"import text used when receipt blank", "  ", "Importado 2026", nil, nil, StockRecent, models.RiskLow, models.RiskSourceImportText},
		{"unrecognised text falls through", "sin clasificar", "", intPtr(30), nil, StockRecent, models.RiskLow, models.RiskSourceReceiptDays},
		{"unrecognised receipt text falls through to import text", "Sin Información", "Previo 2023", intPtr(10), nil, StockOld, models.RiskHigh, models.RiskSourceImportText},
		{"text wins over days", "2023", "", intPtr(10), nil, StockOld, models.RiskHigh, models.RiskSourceReceiptText},
		{"receipt days 90 is recent", "", "", intPtr(90), nil, StockRecent, models.RiskLow, models.RiskSourceReceiptDays},
		{"receipt days 91 is mid term", "", "", intPtr(91), nil, StockMidTerm, models.RiskMedium, models.RiskSourceReceiptDays},
		{"receipt days 366 is old", "", "", intPtr(366), intPtr(5), StockOld, models.RiskHigh, models.RiskSourceReceiptDays},
		{"import days", "", "", nil, intPtr(200), StockMidTerm, models.RiskMedium, models.RiskSourceImportDays},
		{"nothing known", "", "", nil, nil, StockNoDate, models.RiskHigh, models.RiskSourceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyStockRisk(tt.receiptClass, tt.importClass, tt.daysSinceReceipt, tt.daysSinceImport)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantSource, got.Source)
		})
	}
}

func TestClassifyCatalogRisk_NilEntry(t *testing.T) {
	got := ClassifyCatalogRisk(nil, nil, intPtr(400))
	assert.Equal(t, StockOld, got.Label)
	assert.Equal(t, models.RiskSourceImportDays, got.Source)

	entry := &models.CatalogEntry{ReceiptClass: "2025"}
	assert.Equal(t, StockRecent, ClassifyCatalogRisk(entry, nil, nil).Label)
}
