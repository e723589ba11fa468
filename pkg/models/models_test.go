package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	first := &CatalogEntry{SKU: "sku-1", ERPRef: " erp-1 ", Name: "first"}
	dup := &CatalogEntry{SKU: "SKU-1", ERPRef: "ERP-9", Name: "dup"}
	catalog := NewCatalog([]*CatalogEntry{first, dup, {SKU: "", ERPRef: ""}})

	assert.Same(t, first, catalog.BySKU(" SKU-1"), "first entry wins")
	assert.Same(t, first, catalog.ByERPRef("ERP-1"))
	assert.Same(t, dup, catalog.ByERPRef("erp-9"))
	assert.Nil(t, catalog.BySKU(""))
	assert.Len(t, catalog.Entries, 3)

	var none *Catalog
	assert.Nil(t, none.BySKU("SKU-1"))
	assert.Nil(t, none.ByERPRef("ERP-1"))
}

func TestPriceList_Lookup(t *testing.T) {
	prices := NewPriceList([]*CEGPrice{
		{SKU: "a-1", BasePrice: decimal.NewFromInt(10)},
		{SKU: "A-1", BasePrice: decimal.NewFromInt(20)},
	})
	require.NotNil(t, prices.BySKU("A-1"))
	assert.True(t, prices.BySKU("A-1").BasePrice.Equal(decimal.NewFromInt(10)))

	var none *PriceList
	assert.Nil(t, none.BySKU("A-1"))
}

func TestInventory_SumsRepeatedRefs(t *testing.T) {
	original := &StockSnapshot{ERPRef: "erp-1", Cases: decimal.NewFromInt(2), UnitsPerCase: 6}
	inv := NewInventory([]*StockSnapshot{
		original,
		{ERPRef: "ERP-1", Cases: decimal.NewFromInt(3), UnitsPerCase: 6},
		{ERPRef: "", Cases: decimal.NewFromInt(9)},
	})

	require.Len(t, inv.Snapshots, 1)
	snap := inv.ByERPRef("ERP-1")
	require.NotNil(t, snap)
	assert.Equal(t, "5", snap.Cases.String())
	assert.Equal(t, "30", snap.Units().String())
	assert.Equal(t, "2", original.Cases.String(), "input snapshots are not modified")

	var none *Inventory
	assert.Nil(t, none.ByERPRef("ERP-1"))
}

func TestStockSnapshot_Volume(t *testing.T) {
	s := &StockSnapshot{Cases: decimal.NewFromInt(4), VolumePerCase: decimal.RequireFromString("0.25")}
	assert.Equal(t, "1", s.Volume().String())
}

func TestNormalTUPrice(t *testing.T) {
	assert.Equal(t, "12.5", NormalTUPrice(decimal.NewFromInt(10)).String())
}

func TestCatalogEntry_HasPackQty(t *testing.T) {
	var nilEntry *CatalogEntry
	assert.False(t, nilEntry.HasPackQty())
	assert.False(t, (&CatalogEntry{}).HasPackQty())
	assert.True(t, (&CatalogEntry{PackQty: 12}).HasPackQty())
}

func TestPromoPeriod_Contains(t *testing.T) {
	p := &PromoPeriod{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, p.Contains(time.Date(2025, 6, 30, 23, 59, 0, 0, time.UTC)), "end is inclusive")
	assert.True(t, p.Contains(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Time{}))
	assert.False(t, (&PromoPeriod{Name: "sin fechas"}).Contains(time.Now()))
}

func TestMonthFromSpanish(t *testing.T) {
	m, ok := MonthFromSpanish(" setiembre ")
	assert.True(t, ok)
	assert.Equal(t, time.September, m)

	_, ok = MonthFromSpanish("Smarch")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Ana Pérez", (&CustomerAggregate{FirstName: "Ana", LastName: "Pérez"}).FullName())
	assert.Equal(t, "Pérez", (&CustomerAggregate{LastName: "Pérez"}).FullName())
	assert.Equal(t, "Ana", (&SalesLineItem{CustomerFirstName: "Ana"}).CustomerName())
}

func TestEnrichedLine_Matched(t *testing.T) {
	assert.False(t, (&EnrichedLine{}).Matched())
	assert.True(t, (&EnrichedLine{CEG: &CEGPrice{}}).Matched())
	assert.Equal(t, 0, NewJoinReport().UnmatchedCount())
}
