package services

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
	"github.com/tradeunity/salesintel/pkg/workbook"
)

// PricingWorkbookName is the file name of the published-price workbook.
const PricingWorkbookName = "TradeUnity Inteligencia Comercial Publicaciones"

// PricedPublication is a published price compared with the normal TU price
// and the cost bases of its SKU.
type PricedPublication struct {
	*models.PublishedPrice

	NormalPrice   decimal.Decimal
	PlatformPrice decimal.Decimal
	FOB           decimal.Decimal

	// DiscountPct is negative when the published price is above normal.
	DiscountPct decimal.Decimal
	IsDiscount  bool

	MarginFOB         decimal.NullDecimal
	MarginFOBPct      decimal.NullDecimal
	MarginPlatform    decimal.NullDecimal
	MarginPlatformPct decimal.NullDecimal
}

// PricePublications prices every publication whose SKU has a positive
// normal TU price. Others are dropped.
func PricePublications(pubs *models.Publications, prices *models.PriceList) []*PricedPublication {
	if pubs == nil {
		return nil
	}
	var out []*PricedPublication
	for _, pub := range pubs.Prices {
		ceg := prices.BySKU(pub.SKU)
		if ceg == nil {
			continue
		}
		normal := models.NormalTUPrice(ceg.BasePrice)
		if !normal.IsPositive() {
			continue
		}
		p := &PricedPublication{
			PublishedPrice: pub,
			NormalPrice:    normal,
			PlatformPrice:  ceg.BasePrice,
			FOB:            ceg.FOB,
			DiscountPct:    ShareOf(normal.Sub(pub.Price), normal),
			IsDiscount:     pub.Price.LessThan(normal),
		}
		p.MarginFOB, p.MarginFOBPct = Margin(pub.Price, ceg.FOB)
		p.MarginPlatform, p.MarginPlatformPct = Margin(pub.Price, ceg.BasePrice)
		out = append(out, p)
	}
	return out
}

// publishedSKUs returns the SKUs published in each period.
func publishedSKUs(pubs *models.Publications) map[*models.PromoPeriod]map[string]struct{} {
	out := make(map[*models.PromoPeriod]map[string]struct{})
	if pubs == nil {
		return out
	}
	for _, p := range pubs.Prices {
		set, ok := out[p.Period]
		if !ok {
			set = make(map[string]struct{})
			out[p.Period] = set
		}
		set[parse.Key(p.SKU)] = struct{}{}
	}
	return out
}

type pricingReport struct {
	logger *zap.Logger
}

// NewPricingReport builds the published-price intelligence workbook.
func NewPricingReport(logger *zap.Logger) ReportBuilder {
	return &pricingReport{logger: logger.Named("pricing-report")}
}

func (r *pricingReport) Report() string { return config.ReportPricing }

func (r *pricingReport) Requires() []string {
	return []string{ArtifactPublications, ArtifactEnriched, ArtifactCEG}
}

func (r *pricingReport) Build(data *ReportData) (*workbook.Workbook, error) {
	book := workbook.New(PricingWorkbookName, config.ReportPricing)
	priced := PricePublications(data.Publications, data.Prices)
	bySKU := publishedSKUs(data.Publications)

	r.addPricing(book, priced)
	r.addPeriodImpact(book, data, bySKU)
	r.addDiscountSummary(book, data.Lines)
	r.addAnnual(book, data)
	r.addProducts(book, data)
	r.addMix(book, data.Publications, bySKU)

	r.logger.Info("Built pricing workbook",
		zap.Int("periods", len(data.Publications.Periods)),
		zap.Int("publications", len(data.Publications.Prices)),
		zap.Int("priced", len(priced)))

	return book, nil
}

func (r *pricingReport) addPricing(book *workbook.Workbook, priced []*PricedPublication) {
	sheet := book.AddSheet("01_Pricing_Publicaciones",
		"SKU", "Período", "Fecha Inicio", "Fecha Fin", "Precio Publicado",
		"Precio Normal TU", "Precio Plataforma", "FOB", "Descuento (%)", "Es Descuento",
		"Margen vs FOB", "Margen vs Plataforma", "% Margen vs FOB", "% Margen vs Plataforma")
	for _, p := range priced {
		sheet.AddRow(p.SKU, p.Period.Name, p.Period.Start, p.Period.End, p.Price,
			p.NormalPrice, p.PlatformPrice, p.FOB, p.DiscountPct, p.IsDiscount,
			p.MarginFOB, p.MarginPlatform, p.MarginFOBPct, p.MarginPlatformPct)
	}
}

// addPeriodImpact compares, per dated period with sales, the sales of
// published and unpublished products.
func (r *pricingReport) addPeriodImpact(book *workbook.Workbook, data *ReportData, bySKU map[*models.PromoPeriod]map[string]struct{}) {
	sheet := book.AddSheet("02_Impacto_Ventas_por_Periodo",
		"Período", "Fecha Inicio", "Fecha Fin", "Productos Publicados",
		"Total Ventas (USD)", "Ventas Productos Publicados (USD)", "Ventas Productos NO Publicados (USD)",
		"% Ventas de Publicados", "Unidades Vendidas Publicados", "Unidades Vendidas NO Publicados",
		"Órdenes Totales")

	for _, period := range data.Publications.Periods {
		if !period.Dated() {
			continue
		}
		published := bySKU[period]
		total, pubRevenue := decimal.Zero, decimal.Zero
		pubUnits, otherUnits := decimal.Zero, decimal.Zero
		orders := make(map[string]struct{})
		lines := 0
		for _, l := range data.Lines {
			if !period.Contains(l.OrderDate) {
				continue
			}
			lines++
			total = total.Add(l.LineTotalWithTax)
			if l.OrderID != "" {
				orders[l.OrderID] = struct{}{}
			}
			if _, ok := published[parse.Key(l.SKU)]; ok {
				pubRevenue = pubRevenue.Add(l.LineTotalWithTax)
				pubUnits = pubUnits.Add(l.UnitQuantity)
			} else {
				otherUnits = otherUnits.Add(l.UnitQuantity)
			}
		}
		if lines == 0 {
			continue
		}
		sheet.AddRow(period.Name, period.Start, period.End, len(published),
			total, pubRevenue, total.Sub(pubRevenue),
			ShareOf(pubRevenue, total), pubUnits, otherUnits,
			len(orders))
	}
}

// addDiscountSummary splits the lines with a known original price into
// full-price and discounted sales.
func (r *pricingReport) addDiscountSummary(book *workbook.Workbook, lines []*models.EnrichedLine) {
	sheet := book.AddSheet("03_Resumen_Precio_vs_Descuento",
		"Total Items Vendidos", "Items a Precio Original", "Items con Descuento",
		"% Vendidos a Precio Original", "% Vendidos con Descuento",
		"Facturación Precio Original (USD)", "Facturación con Descuento (USD)",
		"Descuento Promedio (%)")

	var full, discounted int
	fullRevenue, discountedRevenue := decimal.Zero, decimal.Zero
	var discounts []decimal.Decimal
	for _, l := range lines {
		if !l.OriginalPrice.IsPositive() {
			continue
		}
		if l.SalePrice.LessThan(l.OriginalPrice) {
			discounted++
			discountedRevenue = discountedRevenue.Add(l.LineTotalWithTax)
			discounts = append(discounts, ComputedDiscount(l.OriginalPrice, l.SalePrice))
		} else {
			full++
			fullRevenue = fullRevenue.Add(l.LineTotalWithTax)
		}
	}

	n := decimal.NewFromInt(int64(full + discounted))
	avg := Mean(discounts)
	if !avg.Valid {
		avg = decimal.NewNullDecimal(decimal.Zero)
	}
	sheet.AddRow(full+discounted, full, discounted,
		ShareOf(decimal.NewFromInt(int64(full)), n), ShareOf(decimal.NewFromInt(int64(discounted)), n),
		fullRevenue, discountedRevenue, avg)
}

// yearStats accumulates publications and sales of one calendar year.
type yearStats struct {
	skus         map[string]struct{}
	publications int
	periods      int
	revenue      decimal.Decimal
	units        decimal.Decimal
	orders       map[string]struct{}
}

// addAnnual compares publication activity and sales year by year.
func (r *pricingReport) addAnnual(book *workbook.Workbook, data *ReportData) {
	sheet := book.AddSheet("04_Comparativo_Anual",
		"Período", "Productos Únicos Publicados", "Total Publicaciones",
		"Promedio Productos por Período", "Total Ventas (USD)", "Unidades Vendidas", "Órdenes Totales")

	years := make(map[int]*yearStats)
	year := func(y int) *yearStats {
		s, ok := years[y]
		if !ok {
			s = &yearStats{skus: make(map[string]struct{}), orders: make(map[string]struct{})}
			years[y] = s
		}
		return s
	}

	for _, p := range data.Publications.Periods {
		if p.Dated() {
			year(p.Start.Year()).periods++
		}
	}
	for _, p := range data.Publications.Prices {
		if p.Period == nil || !p.Period.Dated() {
			continue
		}
		s := year(p.Period.Start.Year())
		s.publications++
		s.skus[parse.Key(p.SKU)] = struct{}{}
	}
	for _, l := range data.Lines {
		if l.OrderDate.IsZero() {
			continue
		}
		s := year(l.OrderDate.Year())
		s.revenue = s.revenue.Add(l.LineTotalWithTax)
		s.units = s.units.Add(l.UnitQuantity)
		if l.OrderID != "" {
			s.orders[l.OrderID] = struct{}{}
		}
	}

	keys := make([]int, 0, len(years))
	for y := range years {
		keys = append(keys, y)
	}
	sort.Ints(keys)
	for _, y := range keys {
		s := years[y]
		perPeriod := decimal.NewFromInt(int64(s.publications)).Div(decimal.NewFromInt(int64(max(1, s.periods))))
		sheet.AddRow(y, len(s.skus), s.publications, perPeriod, s.revenue, s.units, len(s.orders))
	}
}

// addProducts compares the average published and sold price of every
// published product that has sales.
func (r *pricingReport) addProducts(book *workbook.Workbook, data *ReportData) {
	sheet := book.AddSheet("05_Analisis_por_Producto",
		"SKU", "Precio Normal TU", "Precio Promedio Publicado", "Precio Promedio Vendido",
		"Diferencia Publicado vs Vendido", "Veces Publicado", "Unidades Vendidas", "Facturación Total (USD)")

	published := make(map[string][]decimal.Decimal)
	var order []string
	for _, p := range data.Publications.Prices {
		sku := parse.Key(p.SKU)
		if _, ok := published[sku]; !ok {
			order = append(order, sku)
		}
		published[sku] = append(published[sku], p.Price)
	}
	sales, _ := SalesBySKU(data.Lines)

	type row struct {
		sku                  string
		normal, sold, pubAvg decimal.NullDecimal
		times                int
		s                    *ProductSales
	}
	var rows []row
	for _, sku := range order {
		s, ok := sales[sku]
		if !ok {
			continue
		}
		x := row{sku: sku, pubAvg: Mean(published[sku]), sold: Mean(s.UnitPrices), times: len(published[sku]), s: s}
		if ceg := data.Prices.BySKU(sku); ceg != nil {
			x.normal = decimal.NewNullDecimal(models.NormalTUPrice(ceg.BasePrice))
		}
		rows = append(rows, x)
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].s.RevenueWithTax.GreaterThan(rows[b].s.RevenueWithTax) })

	for _, x := range rows {
		var diff decimal.NullDecimal
		if x.pubAvg.Valid && x.sold.Valid {
			diff = decimal.NewNullDecimal(x.pubAvg.Decimal.Sub(x.sold.Decimal))
		}
		sheet.AddRow(x.sku, x.normal, x.pubAvg, x.sold, diff, x.times, x.s.Units, x.s.RevenueWithTax)
	}
}

// addMix counts, per period in order, the products published for the
// first time and the repeated ones.
func (r *pricingReport) addMix(book *workbook.Workbook, pubs *models.Publications, bySKU map[*models.PromoPeriod]map[string]struct{}) {
	sheet := book.AddSheet("06_Mix_Productos_por_Periodo",
		"Período", "Fecha Inicio", "Fecha Fin", "Total Productos Publicados",
		"Productos Nuevos", "Productos Repetidos", "% Productos Nuevos")

	seen := make(map[string]struct{})
	for _, period := range pubs.Periods {
		skus := bySKU[period]
		fresh := 0
		for sku := range skus {
			if _, ok := seen[sku]; !ok {
				fresh++
			}
		}
		for sku := range skus {
			seen[sku] = struct{}{}
		}
		sheet.AddRow(period.Name, period.Start, period.End, len(skus),
			fresh, len(skus)-fresh,
			ShareOf(decimal.NewFromInt(int64(fresh)), decimal.NewFromInt(int64(len(skus)))))
	}
}
