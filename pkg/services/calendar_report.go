package services

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
	"github.com/tradeunity/salesintel/pkg/workbook"
)

// CalendarWorkbookName is the file name of the commercial-calendar workbook.
const CalendarWorkbookName = "TradeUnity Sugerencias Calendario Comercial"

const (
	maxPerBrand         = 3
	maxPerCategory      = 5
	fallbackCategories  = 5
	topCalendarProducts = 100

	// noRotationDays is reported as stock days for products that never sold.
	noRotationDays = 999
)

// Action kinds derived from an event's action type text.
const (
	ActionBundle      = "bundle"
	ActionLiquidation = "liquidation"
	ActionFlash       = "flash"
	ActionDefault     = "default"
)

// ActionKinds classifies an event's free-text action type.
var ActionKinds = NewDecisionList[string](ActionDefault,
	Rule[string]{Label: ActionBundle, Match: func(s string) bool { return strings.Contains(s, "Bundle") }},
	Rule[string]{Label: ActionLiquidation, Match: func(s string) bool { return strings.Contains(s, "Liquidación") }},
	Rule[string]{Label: ActionFlash, Match: func(s string) bool { return strings.Contains(s, "Flash") }},
)

// EventProduct is one in-stock product considered for a commercial event.
type EventProduct struct {
	SKU        string
	Name       string
	Brand      string
	Category   string
	StockCases decimal.Decimal
	StockUnits decimal.Decimal

	NormalPrice decimal.Decimal
	FOB         decimal.Decimal
	UnitMargin  decimal.Decimal
	MarginPct   decimal.Decimal

	Revenue       decimal.Decimal
	UnitsSold     decimal.Decimal
	Customers     int
	AvgPaid       decimal.NullDecimal
	DaysSinceSale *int

	MonthlyRotation decimal.Decimal
	StockDays       decimal.Decimal
}

// StockValueFOB is the stock valued at FOB.
func (p *EventProduct) StockValueFOB() decimal.Decimal {
	return p.StockUnits.Mul(p.FOB)
}

// StockValueSale is the stock valued at the normal price.
func (p *EventProduct) StockValueSale() decimal.Decimal {
	return p.StockUnits.Mul(p.NormalPrice)
}

// EventProducts builds one candidate per stock snapshot found in the
// catalog, with its sales history and pricing.
func EventProducts(data *ReportData, sales map[string]*ProductSales) []*EventProduct {
	if data.Stock == nil {
		return nil
	}
	twelve := decimal.NewFromInt(12)
	thirty := decimal.NewFromInt(30)

	var out []*EventProduct
	for _, snap := range data.Stock.Snapshots {
		cat := data.Catalog.ByERPRef(snap.ERPRef)
		if cat == nil || parse.Key(cat.SKU) == "" {
			continue
		}
		sku := parse.Key(cat.SKU)
		p := &EventProduct{
			SKU:        sku,
			Name:       cat.Name,
			Brand:      cat.Brand,
			Category:   cat.Category,
			StockCases: snap.Cases,
			StockUnits: snap.Units(),
		}
		if ceg := data.Prices.BySKU(sku); ceg != nil {
			p.NormalPrice = models.NormalTUPrice(ceg.BasePrice)
			p.FOB = ceg.FOB
		}
		if p.NormalPrice.IsPositive() && p.FOB.IsPositive() {
			p.UnitMargin = p.NormalPrice.Sub(p.FOB)
		}
		p.MarginPct = ShareOf(p.UnitMargin, p.NormalPrice)

		if s, ok := sales[sku]; ok {
			p.Revenue = s.RevenueWithTax
			p.UnitsSold = s.Units
			p.Customers = len(s.Customers)
			p.AvgPaid = Mean(s.UnitPrices)
			if !s.LastSale.IsZero() {
				days := parse.DaysBetween(s.LastSale, data.ReferenceDate)
				p.DaysSinceSale = &days
			}
		}

		p.StockDays = decimal.NewFromInt(noRotationDays)
		if p.UnitsSold.IsPositive() {
			p.MonthlyRotation = p.UnitsSold.Div(twelve)
			p.StockDays = p.StockUnits.Div(p.MonthlyRotation).Mul(thirty)
		}
		out = append(out, p)
	}
	return out
}

// SuggestionScore is the recommendation score shown next to each
// suggestion. Revenue is counted in thousands and customers in tens.
// Flash events share the default weights.
func SuggestionScore(kind string, p *EventProduct) float64 {
	revenue := p.Revenue.InexactFloat64() / 1000
	stock := p.StockUnits.InexactFloat64()
	customers := float64(p.Customers) / 10

	switch kind {
	case ActionBundle:
		return revenue*0.3 + math.Min(stock/50, 2)*0.4 + customers*0.3
	case ActionLiquidation:
		return (stock/100)*0.5 + revenue*0.3 + customers*0.2
	default:
		return revenue*0.4 + math.Min(stock/100, 1)*0.3 + customers*0.3
	}
}

// RankKey orders the candidates of an event before the brand and category
// caps are applied. Stock is weighted in revenue units, so it dominates
// bundles and liquidations far more than in SuggestionScore.
func RankKey(kind string, p *EventProduct) float64 {
	revenue := p.Revenue.InexactFloat64()
	stock := p.StockUnits.InexactFloat64()
	customers := float64(p.Customers) * 100
	units := p.UnitsSold.InexactFloat64() * 10

	switch kind {
	case ActionBundle:
		return revenue*0.3 + math.Min(stock/50, 2)*5000*0.4 + customers*0.3
	case ActionLiquidation:
		return stock*0.5 + revenue*0.3 + customers*0.2
	case ActionFlash:
		return revenue*0.5 + units*0.3 + math.Min(stock/100, 1)*5000*0.2
	default:
		return revenue*0.4 + math.Min(stock/100, 1)*10000*0.3 + customers*0.3
	}
}

// SuggestedAction proposes a promotion for an event's action type.
func SuggestedAction(actionType string) string {
	switch {
	case strings.Contains(actionType, "Bundle"):
		return "Bundle (combo con productos relacionados)"
	case strings.Contains(actionType, "Descuento"):
		if strings.Contains(actionType, "Flash") {
			return "Descuento 15%"
		}
		return "Descuento 25%"
	case strings.Contains(actionType, "Liquidación"):
		return "Liquidación (30-40% descuento)"
	default:
		return actionType
	}
}

var reasonPrinter = message.NewPrinter(language.English)

// SuggestionReason explains why a product was suggested.
func SuggestionReason(p *EventProduct, actionType string) string {
	var reasons []string
	if p.Revenue.GreaterThan(decimal.NewFromInt(20000)) {
		reasons = append(reasons, reasonPrinter.Sprintf("Alta facturación histórica ($%.0f)", p.Revenue.InexactFloat64()))
	}
	switch {
	case p.StockUnits.GreaterThan(decimal.NewFromInt(500)):
		reasons = append(reasons, reasonPrinter.Sprintf("Stock abundante (%.0f unidades)", p.StockUnits.InexactFloat64()))
	case p.StockUnits.GreaterThan(decimal.NewFromInt(100)):
		reasons = append(reasons, reasonPrinter.Sprintf("Stock moderado (%.0f unidades)", p.StockUnits.InexactFloat64()))
	}
	if p.Customers > 20 {
		reasons = append(reasons, reasonPrinter.Sprintf("Demanda probada (%d clientes únicos)", p.Customers))
	}
	switch {
	case strings.Contains(actionType, "Bundle"):
		reasons = append(reasons, "Ideal para combinar en bundle")
	case strings.Contains(actionType, "Liquidación"):
		reasons = append(reasons, "Adecuado para liquidación (stock disponible)")
	}
	if len(reasons) == 0 {
		return "Producto con buen historial de ventas"
	}
	return strings.Join(reasons, " | ")
}

// Suggestion is one product proposed for one event.
type Suggestion struct {
	Event   *models.CalendarEvent
	Product *EventProduct
	Score   float64
}

// SelectForEvent ranks candidates for an event by RankKey and picks up to
// limit, allowing at most 3 per brand and 5 per category before topping up
// from the remaining candidates in rank order.
func SelectForEvent(event *models.CalendarEvent, candidates []*EventProduct, limit int) []*Suggestion {
	kind := ActionKinds.Classify(event.ActionType)
	ranked := make([]*Suggestion, len(candidates))
	keys := make(map[*Suggestion]float64, len(candidates))
	for i, p := range candidates {
		ranked[i] = &Suggestion{Event: event, Product: p, Score: SuggestionScore(kind, p)}
		keys[ranked[i]] = RankKey(kind, p)
	}
	sort.SliceStable(ranked, func(a, b int) bool { return keys[ranked[a]] > keys[ranked[b]] })

	picked := make([]*Suggestion, 0, limit)
	taken := make(map[string]bool)
	brands := make(map[string]int)
	categories := make(map[string]int)
	for _, s := range ranked {
		if len(picked) >= limit {
			break
		}
		p := s.Product
		if brands[p.Brand] >= maxPerBrand || categories[p.Category] >= maxPerCategory {
			continue
		}
		picked = append(picked, s)
		taken[p.SKU] = true
		brands[p.Brand]++
		categories[p.Category]++
	}
	for _, s := range ranked {
		if len(picked) >= limit {
			break
		}
		if !taken[s.Product.SKU] {
			picked = append(picked, s)
			taken[s.Product.SKU] = true
		}
	}
	return picked
}

// eventMonth orders unknown months after December.
func eventMonth(e *models.CalendarEvent) int {
	if e.Month == 0 {
		return 13
	}
	return int(e.Month)
}

type calendarReport struct {
	perEvent int
	logger   *zap.Logger
}

// NewCalendarReport builds the commercial-calendar suggestion workbook with
// up to perEvent products per event.
func NewCalendarReport(perEvent int, logger *zap.Logger) ReportBuilder {
	if perEvent <= 0 {
		perEvent = 20
	}
	return &calendarReport{perEvent: perEvent, logger: logger.Named("calendar-report")}
}

func (r *calendarReport) Report() string { return config.ReportCalendar }

func (r *calendarReport) Requires() []string {
	return []string{ArtifactCalendar, ArtifactEnriched, ArtifactCatalog, ArtifactCEG, ArtifactStock}
}

func (r *calendarReport) Build(data *ReportData) (*workbook.Workbook, error) {
	book := workbook.New(CalendarWorkbookName, config.ReportCalendar)
	sales, order := SalesBySKU(data.Lines)
	products := EventProducts(data, sales)

	categoryRevenue := NewTotals()
	for _, l := range data.Lines {
		categoryRevenue.Add(l.Category, l.LineTotalWithTax)
	}
	fallback := topN(categoryRevenue.Sorted(), fallbackCategories)

	refMonth := int(data.ReferenceDate.Month())
	var events []*models.CalendarEvent
	var suggestions []*Suggestion
	for _, e := range data.Events {
		if eventMonth(e) < refMonth {
			continue
		}
		events = append(events, e)

		categories := data.EventCategories.Match(e.Name)
		if len(categories) == 0 {
			categories = fallback
		}
		var candidates []*EventProduct
		for _, p := range products {
			if p.StockUnits.IsPositive() && containsFold(categories, p.Category) {
				candidates = append(candidates, p)
			}
		}
		suggestions = append(suggestions, SelectForEvent(e, candidates, r.perEvent)...)
	}
	sort.SliceStable(suggestions, func(a, b int) bool {
		ea, eb := suggestions[a].Event, suggestions[b].Event
		if eventMonth(ea) != eventMonth(eb) {
			return eventMonth(ea) < eventMonth(eb)
		}
		if ea.Name != eb.Name {
			return ea.Name < eb.Name
		}
		return suggestions[a].Score > suggestions[b].Score
	})

	r.addSuggestions(book, suggestions)
	r.addEventSummary(book, events, suggestions)
	r.addPatterns(book, data.Lines, sales, order)

	r.logger.Info("Built calendar workbook",
		zap.Int("events", len(events)),
		zap.Int("candidates", len(products)),
		zap.Int("suggestions", len(suggestions)))

	return book, nil
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(strings.TrimSpace(x), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

func (r *calendarReport) addSuggestions(book *workbook.Workbook, suggestions []*Suggestion) {
	sheet := book.AddSheet("01_Sugerencias_por_Evento",
		"Evento", "Mes", "Tipo Acción", "SKU", "Nombre Producto", "Marca", "Categoría",
		"Stock Unidades", "Stock Cajas", "Precio Normal TU", "FOB", "Margen Unitario", "Margen %",
		"Facturación Histórica (USD)", "Unidades Vendidas Históricas", "Rotación Mensual",
		"Días de Stock", "Días desde Última Venta", "Clientes Únicos", "Precio Promedio Vendido",
		"Valor Stock FOB", "Valor Stock Venta", "Ganancia Potencial",
		"Score Recomendación", "Acción Sugerida", "Razón Recomendación")

	for _, s := range suggestions {
		p, e := s.Product, s.Event
		sheet.AddRow(e.Name, e.MonthName, e.ActionType, p.SKU, p.Name, p.Brand, p.Category,
			p.StockUnits, p.StockCases, p.NormalPrice, p.FOB, p.UnitMargin, p.MarginPct,
			p.Revenue, p.UnitsSold, p.MonthlyRotation,
			p.StockDays.Round(0), p.DaysSinceSale, p.Customers, p.AvgPaid,
			p.StockValueFOB(), p.StockValueSale(), p.StockValueSale().Sub(p.StockValueFOB()),
			decimal.NewFromFloat(s.Score), SuggestedAction(e.ActionType), SuggestionReason(p, e.ActionType))
	}
}

func (r *calendarReport) addEventSummary(book *workbook.Workbook, events []*models.CalendarEvent, suggestions []*Suggestion) {
	sheet := book.AddSheet("02_Resumen_por_Evento",
		"Evento", "Mes", "Tipo Acción", "Productos Sugeridos", "Total Stock Disponible",
		"Facturación Histórica Total", "Marcas Únicas", "Categorías Únicas")

	byEvent := make(map[*models.CalendarEvent][]*Suggestion)
	for _, s := range suggestions {
		byEvent[s.Event] = append(byEvent[s.Event], s)
	}
	for _, e := range events {
		picked := byEvent[e]
		if len(picked) == 0 {
			continue
		}
		stock, revenue := decimal.Zero, decimal.Zero
		brands := make(map[string]struct{})
		categories := make(map[string]struct{})
		for _, s := range picked {
			stock = stock.Add(s.Product.StockUnits)
			revenue = revenue.Add(s.Product.Revenue)
			brands[s.Product.Brand] = struct{}{}
			categories[s.Product.Category] = struct{}{}
		}
		sheet.AddRow(e.Name, e.MonthName, e.ActionType, len(picked), stock.Floor(),
			revenue, len(brands), len(categories))
	}
}

func (r *calendarReport) addPatterns(book *workbook.Workbook, lines []*models.EnrichedLine, sales map[string]*ProductSales, order []string) {
	categories := book.AddSheet("03_Patrones_por_Categoria",
		"Categoría", "SKUs Únicos", "Facturación Total", "Unidades Vendidas", "Clientes Únicos", "Precio Promedio")
	for _, g := range groupLines(lines, func(l *models.EnrichedLine) string { return l.Category }) {
		categories.AddRow(g.key, len(g.skus), g.revenueWithTax, g.units, len(g.customers), Mean(g.unitPrices))
	}

	brands := book.AddSheet("04_Patrones_por_Marca",
		"Marca", "SKUs Únicos", "Facturación Total", "Unidades Vendidas", "Clientes Únicos")
	for _, g := range groupLines(lines, func(l *models.EnrichedLine) string { return l.Brand }) {
		brands.AddRow(g.key, len(g.skus), g.revenueWithTax, g.units, len(g.customers))
	}

	top := book.AddSheet("05_Top_100_Productos",
		"SKU", "Nombre", "Marca", "Categoría", "Facturación", "Unidades", "Clientes")
	for _, p := range topN(byRevenue(sales, order), topCalendarProducts) {
		top.AddRow(p.SKU, p.Name, p.Brand, p.Category, p.RevenueWithTax, p.Units, len(p.Customers))
	}
}
