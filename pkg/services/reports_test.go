package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/workbook"
)

// reportFixture runs a small history through enrichment and segmentation.
func reportFixture(t *testing.T) *ReportData {
	t.Helper()
	ref := day(2025, 6, 30)

	catalog := models.NewCatalog([]*models.CatalogEntry{
		{SKU: "SKU-1", ERPRef: "ERP-1", Name: "Vino Tinto", Brand: "Marca A", Category: "Vinos",
			PackQty: 6, FOB: dec("4"), PlatformPrice: dec("8"), LastReceiptDate: day(2025, 1, 1)},
		{SKU: "SKU-2", ERPRef: "ERP-2", Name: "Papas", Brand: "Marca B", Category: "Snacks",
			PackQty: 12, FOB: dec("1"), PlatformPrice: dec("2"), LastReceiptDate: day(2024, 1, 1)},
		{SKU: "SKU-3", ERPRef: "ERP-3", Name: "Maní", Brand: "Marca B", Category: "Snacks", PackQty: 10},
	})
	prices := models.NewPriceList([]*models.CEGPrice{
		{SKU: "SKU-1", BrandName: "Marca A", CategoryName: "Bebidas", BasePrice: dec("10"), FOB: dec("5")},
		{SKU: "SKU-2", BrandName: "Marca B", CategoryName: "Snacks", BasePrice: dec("3"), FOB: dec("1")},
	})
	stock := models.NewInventory([]*models.StockSnapshot{
		{ERPRef: "ERP-1", Cases: dec("20"), UnitsPerCase: 6},
		{ERPRef: "ERP-2", Cases: dec("5"), UnitsPerCase: 12},
		{ERPRef: "ERP-3", Cases: dec("2"), UnitsPerCase: 10},
	})

	sales := []*models.SalesLineItem{
		{OrderID: "o1", OrderDate: day(2025, 5, 10), Status: models.StatusComplete, CustomerEmail: "ana@x.com",
			SKU: "SKU-1", Cases: dec("2"), SalePrice: dec("60"), PriceWithTax: dec("72.6"),
			LineTotal: dec("120"), LineTotalWithTax: dec("145.2")},
		{OrderID: "o2", OrderDate: day(2025, 6, 15), Status: models.StatusComplete, CustomerEmail: "ana@x.com",
			SKU: "SKU-2", Cases: dec("1"), SalePrice: dec("30"), PriceWithTax: dec("36.3"),
			LineTotal: dec("30"), LineTotalWithTax: dec("36.3")},
		{OrderID: "o3", OrderDate: day(2024, 11, 20), Status: models.StatusComplete, CustomerEmail: "beto@x.com",
			SKU: "SKU-1", Cases: dec("1"), SalePrice: dec("66"), PriceWithTax: dec("79.86"),
			LineTotal: dec("66"), LineTotalWithTax: dec("79.86")},
	}

	lines, join := NewEnrichmentService(catalog, prices, stock, ref, zap.NewNop()).Enrich(sales)
	customers := NewSegmentationService(ref, zap.NewNop()).Aggregate(lines)

	events := []*models.CalendarEvent{
		{Month: 3, MonthName: "Marzo", Name: "Pascua", ActionType: "Descuento"},
		{Month: 0, MonthName: "", Name: "Evento Especial", ActionType: "Descuento Flash"},
		{Month: 7, MonthName: "Julio", Name: "Día del Amigo", ActionType: "Bundle"},
	}
	june := &models.PromoPeriod{Column: "Junio 1-30", Name: "Junio", Start: day(2025, 6, 1), End: day(2025, 6, 30)}
	special := &models.PromoPeriod{Column: "Especial", Name: "Especial"}
	pubs := &models.Publications{
		Periods: []*models.PromoPeriod{june, special},
		Prices: []*models.PublishedPrice{
			{SKU: "SKU-1", Period: june, Price: dec("11")},
			{SKU: "SKU-2", Period: june, Price: dec("4")},
			{SKU: "SKU-9", Period: special, Price: dec("5")},
		},
	}

	return &ReportData{
		ReferenceDate:   ref,
		Lines:           lines,
		Join:            join,
		Customers:       customers,
		Catalog:         catalog,
		Prices:          prices,
		Stock:           stock,
		Events:          events,
		EventCategories: config.EventCategoryTable{{Event: "amigo", Categories: []string{"vinos"}}},
		Publications:    pubs,
	}
}

func sheetNames(book *workbook.Workbook) []string {
	names := make([]string, len(book.Sheets))
	for i, s := range book.Sheets {
		names[i] = s.Name
	}
	return names
}

func buildReport(t *testing.T, b ReportBuilder, data *ReportData) *workbook.Workbook {
	t.Helper()
	book, err := b.Build(data)
	require.NoError(t, err)
	require.NotNil(t, book)
	for _, s := range book.Sheets {
		for i, row := range s.Rows {
			require.Len(t, row, len(s.Columns), "%s row %d", s.Name, i)
		}
		assert.LessOrEqual(t, len([]rune(s.Name)), workbook.MaxSheetName, s.Name)
	}
	return book
}

func TestCustomerReport_Build(t *testing.T) {
	data := reportFixture(t)
	book := buildReport(t, NewCustomerReport(10, zap.NewNop()), data)

	assert.Equal(t, CustomerWorkbookName, book.Name)
	assert.Equal(t, []string{
		"00_Resumen_Ejecutivo", "01_TOP_10_Clientes", "02_Clientes_80_20", "03_Clientes_Reincidentes",
		"04_Clientes_Sanos", "05_Segmentacion_RFV", "06_Analisis_Salud", "07_Fans_de_Marcas",
		"08_Fieles_a_Verticales", "09_Diversidad_Compra", "10_Cazadores_Descuentos",
		"11_Antiguedad_Inventario", "12_Top_Fans_por_Marca", "13_Top_Fieles_por_Vertical",
		"14_Analisis_Margenes", "15_Oportunistas", "16_Correlacion_Volumen_Margen", "17_Todos_Los_Clientes",
	}, sheetNames(book))

	top := book.Sheet("01_TOP_10_Clientes")
	require.Len(t, top.Rows, 2)
	assert.Equal(t, "ana@x.com", top.Record(0)["Email"])

	assert.Len(t, book.Sheet("03_Clientes_Reincidentes").Rows, 1)
	assert.Len(t, book.Sheet("17_Todos_Los_Clientes").Rows, 2)

	// Every RFV row has at least one customer.
	for i := range book.Sheet("05_Segmentacion_RFV").Rows {
		assert.Positive(t, book.Sheet("05_Segmentacion_RFV").Record(i)["Cantidad_Clientes"])
	}
}

func TestCustomerReport_DefaultTopN(t *testing.T) {
	book := buildReport(t, NewCustomerReport(0, zap.NewNop()), reportFixture(t))
	assert.NotNil(t, book.Sheet("01_TOP_100_Clientes"))
}

func TestOpportunityReport_Build(t *testing.T) {
	data := reportFixture(t)
	book := buildReport(t, NewOpportunityReport(2025, zap.NewNop()), data)

	assert.Equal(t, OpportunityWorkbookName, book.Name)
	require.Len(t, book.Sheets, 14)
	assert.Equal(t, "01_Cliente_Producto", book.Sheets[0].Name)
	assert.Equal(t, "14_Resumen_por_Cliente", book.Sheets[13].Name)

	assert.Len(t, book.Sheet("01_Cliente_Producto").Rows, 3)
	assert.Len(t, book.Sheet("02_Probabilidad_Compra").Rows, 3)

	potential := book.Sheet("03_SKU_Clientes_Potenciales")
	require.Len(t, potential.Rows, 3)
	assert.Equal(t, "SKU-1", potential.Record(0)["SKU"])
	assert.Equal(t, "SKU-2", potential.Record(2)["SKU"])

	quarterly := book.Sheet("13_Resumen_Trimestral")
	require.Len(t, quarterly.Rows, 2, "Total plus one quarter from 2025")
	assert.Equal(t, "Total", quarterly.Record(0)["Trimestre"])

	summary := book.Sheet("14_Resumen_por_Cliente")
	require.Len(t, summary.Rows, 2)
	assert.Equal(t, "ana@x.com", summary.Record(0)["Email Cliente"])
}

func TestInventoryReport_Build(t *testing.T) {
	book := buildReport(t, NewInventoryReport(zap.NewNop()), reportFixture(t))

	assert.Equal(t, InventoryWorkbookName, book.Name)
	require.Len(t, book.Sheets, 11)
	assert.Len(t, book.Sheet("00_Inventario_Completo").Rows, 3)
	assert.Len(t, book.Sheet("05_Productos_Sin_Ventas").Rows, 1)
	assert.Len(t, book.Sheet("07_Resumen_Valorizacion").Rows, 3)
	assert.Len(t, book.Sheet("10_Rotacion").Rows, 2)
}

func TestCalendarReport_Build(t *testing.T) {
	book := buildReport(t, NewCalendarReport(20, zap.NewNop()), reportFixture(t))

	assert.Equal(t, CalendarWorkbookName, book.Name)
	require.Len(t, book.Sheets, 5)

	suggestions := book.Sheet("01_Sugerencias_por_Evento")
	require.Len(t, suggestions.Rows, 4, "past events are skipped")
	assert.Equal(t, "Día del Amigo", suggestions.Record(0)["Evento"])
	assert.Equal(t, "SKU-1", suggestions.Record(0)["SKU"])
	for i := 1; i < len(suggestions.Rows); i++ {
		assert.Equal(t, "Evento Especial", suggestions.Record(i)["Evento"], "unknown months sort last")
	}

	assert.Len(t, book.Sheet("02_Resumen_por_Evento").Rows, 2)
}

func TestPricingReport_Build(t *testing.T) {
	data := reportFixture(t)
	book := buildReport(t, NewPricingReport(zap.NewNop()), data)

	assert.Equal(t, PricingWorkbookName, book.Name)
	assert.Equal(t, []string{
		"01_Pricing_Publicaciones", "02_Impacto_Ventas_por_Periodo", "03_Resumen_Precio_vs_Descuento",
		"04_Comparativo_Anual", "05_Analisis_por_Producto", "06_Mix_Productos_por_Periodo",
	}, sheetNames(book))

	assert.Len(t, book.Sheet("01_Pricing_Publicaciones").Rows, 2, "SKUs without a normal price are dropped")
	assert.Len(t, book.Sheet("02_Impacto_Ventas_por_Periodo").Rows, 1)
	assert.Len(t, book.Sheet("03_Resumen_Precio_vs_Descuento").Rows, 1)
}

func TestPricePublications(t *testing.T) {
	data := reportFixture(t)
	priced := PricePublications(data.Publications, data.Prices)
	require.Len(t, priced, 2)

	below := priced[0]
	assertDec(t, "12.50", below.NormalPrice)
	assertDec(t, "12.00", below.DiscountPct)
	assert.True(t, below.IsDiscount)
	assertNullDec(t, "6.00", below.MarginFOB)
	assertNullDec(t, "120.00", below.MarginFOBPct)

	above := priced[1]
	assertDec(t, "-6.67", above.DiscountPct)
	assert.False(t, above.IsDiscount)

	assert.Nil(t, PricePublications(nil, data.Prices))
}

func TestEnrichedSalesReport_Build(t *testing.T) {
	data := reportFixture(t)
	book := buildReport(t, NewEnrichedSalesReport(zap.NewNop()), data)

	assert.True(t, book.CSVOnly)
	assert.Equal(t, EnrichedSalesName, book.Name)
	require.Len(t, book.Sheets, 1)
	assert.Len(t, book.Sheets[0].Rows, len(data.Lines))

	for _, l := range data.Lines {
		assert.Len(t, enrichedRow(l), len(enrichedColumns))
	}

	first := book.Sheets[0].Record(0)
	assert.Equal(t, "ERP-1", first["tu_Referencia_ERP"])
	assert.Equal(t, "Marca A", first["Marca"])
}

func TestReportBuilders_FollowsConfig(t *testing.T) {
	cfg := &config.Config{Reports: []string{config.ReportPricing, config.ReportCustomers}}
	cfg.Customers.TopN = 5

	var names []string
	for _, b := range ReportBuilders(cfg, zap.NewNop()) {
		names = append(names, b.Report())
	}
	assert.Equal(t, []string{config.ReportCustomers, config.ReportPricing}, names)
}
