package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeunity/salesintel/pkg/models"
)

func eventProduct(sku, brand, category string, revenue int64) *EventProduct {
	return &EventProduct{
		SKU:        sku,
		Brand:      brand,
		Category:   category,
		StockUnits: decimal.NewFromInt(10),
		Revenue:    decimal.NewFromInt(revenue),
	}
}

func TestSelectForEvent_BrandCapThenTopUp(t *testing.T) {
	event := &models.CalendarEvent{Name: "Día del Padre", ActionType: "Descuento"}
	candidates := []*EventProduct{
		eventProduct("A1", "A", "Vinos", 9000),
		eventProduct("A2", "A", "Vinos", 8000),
		eventProduct("A3", "A", "Vinos", 7000),
		eventProduct("A4", "A", "Vinos", 6000),
		eventProduct("B1", "B", "Vinos", 1000),
	}

	t.Run("fourth product of a brand waits for top-up", func(t *testing.T) {
		picked := SelectForEvent(event, candidates, 4)
		require.Len(t, picked, 4)
		var skus []string
		for _, s := range picked {
			skus = append(skus, s.Product.SKU)
		}
		assert.Equal(t, []string{"A1", "A2", "A3", "B1"}, skus)
	})

	t.Run("top-up fills the remaining slots", func(t *testing.T) {
		picked := SelectForEvent(event, candidates, 5)
		require.Len(t, picked, 5)
		assert.Equal(t, "A4", picked[4].Product.SKU)
	})

	t.Run("limit above candidates", func(t *testing.T) {
		assert.Len(t, SelectForEvent(event, candidates, 20), 5)
	})
}

func TestSelectForEvent_CategoryCap(t *testing.T) {
	event := &models.CalendarEvent{Name: "Verano", ActionType: "Descuento"}
	var candidates []*EventProduct
	for i := 0; i < 6; i++ {
		candidates = append(candidates, eventProduct(fmt.Sprintf("V%d", i), fmt.Sprintf("brand-%d", i), "Vinos", int64(10000-i*1000)))
	}
	candidates = append(candidates, eventProduct("S1", "snack", "Snacks", 10))

	picked := SelectForEvent(event, candidates, 6)
	require.Len(t, picked, 6)
	assert.Equal(t, "S1", picked[5].Product.SKU)
}

func TestSuggestionScore(t *testing.T) {
	p := &EventProduct{
		Revenue:    decimal.NewFromInt(10000),
		StockUnits: decimal.NewFromInt(200),
		UnitsSold:  decimal.NewFromInt(300),
		Customers:  20,
	}

	tests := []struct {
		kind string
		want float64
	}{
		{ActionDefault, 4.9},
		{ActionBundle, 4.4},
		{ActionLiquidation, 4.4},
		{ActionFlash, 4.9},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.InDelta(t, tt.want, SuggestionScore(tt.kind, p), 1e-9)
		})
	}
}

func TestRankKey(t *testing.T) {
	p := &EventProduct{
		Revenue:    decimal.NewFromInt(10000),
		StockUnits: decimal.NewFromInt(200),
		UnitsSold:  decimal.NewFromInt(300),
		Customers:  20,
	}

	tests := []struct {
		kind string
		want float64
	}{
		{ActionDefault, 4000 + 3000 + 600},
		{ActionBundle, 3000 + 4000 + 600},
		{ActionLiquidation, 100 + 3000 + 400},
		{ActionFlash, 5000 + 900 + 1000},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.InDelta(t, tt.want, RankKey(tt.kind, p), 1e-9)
		})
	}
}

func TestSelectForEvent_OrdersByRankKey(t *testing.T) {
	tests := []struct {
		name       string
		actionType string
		a, b       *EventProduct
		want       string
	}{
		{
			name:       "bundle favours stock over revenue",
			actionType: "Bundle",
			a:          &EventProduct{SKU: "A", Brand: "x", Category: "c", Revenue: decimal.NewFromInt(10000), StockUnits: decimal.NewFromInt(1), Customers: 1},
			b:          &EventProduct{SKU: "B", Brand: "y", Category: "c", StockUnits: decimal.NewFromInt(100)},
			want:       "B",
		},
		{
			name:       "liquidation counts raw stock units",
			actionType: "Liquidación",
			a:          &EventProduct{SKU: "A", Brand: "x", Category: "c", Revenue: decimal.NewFromInt(1000), StockUnits: decimal.NewFromInt(1)},
			b:          &EventProduct{SKU: "B", Brand: "y", Category: "c", StockUnits: decimal.NewFromInt(500)},
			want:       "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &models.CalendarEvent{Name: "Evento", ActionType: tt.actionType}
			picked := SelectForEvent(event, []*EventProduct{tt.a, tt.b}, 1)
			require.Len(t, picked, 1)
			assert.Equal(t, tt.want, picked[0].Product.SKU)
		})
	}
}

func TestActionKinds(t *testing.T) {
	assert.Equal(t, ActionBundle, ActionKinds.Classify("Bundle Día del Amigo"))
	assert.Equal(t, ActionLiquidation, ActionKinds.Classify("Liquidación de temporada"))
	assert.Equal(t, ActionFlash, ActionKinds.Classify("Descuento Flash"))
	assert.Equal(t, ActionDefault, ActionKinds.Classify("Descuento"))

	assert.Equal(t, "Descuento 15%", SuggestedAction("Descuento Flash"))
	assert.Equal(t, "Descuento 25%", SuggestedAction("Descuento"))
	assert.Equal(t, "Lanzamiento", SuggestedAction("Lanzamiento"))
}

func TestSuggestionReason(t *testing.T) {
	p := &EventProduct{Revenue: decimal.NewFromInt(25000), StockUnits: decimal.NewFromInt(600), Customers: 21}
	assert.Equal(t,
		"Alta facturación histórica ($25,000) | Stock abundante (600 unidades) | Demanda probada (21 clientes únicos) | Ideal para combinar en bundle",
		SuggestionReason(p, "Bundle"))

	assert.Equal(t, "Producto con buen historial de ventas", SuggestionReason(&EventProduct{}, "Descuento"))
}

func TestMarginBins_RightInclusive(t *testing.T) {
	tests := []struct {
		pct  string
		want string
	}{
		{"0.01", "0-50%"},
		{"50", "0-50%"},
		{"50.01", "50-100%"},
		{"200", "150-200%"},
		{"200.5", "200%+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MarginFOBBins.Classify(dec(tt.pct)), tt.pct)
	}
	assert.Equal(t, "30-50%", MarginPlatformBins.Classify(dec("50")))
	assert.Equal(t, "50%+", MarginPlatformBins.Classify(dec("51")))
}
