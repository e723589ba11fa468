package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
	"github.com/tradeunity/salesintel/pkg/workbook"
)

// OpportunityWorkbookName is the file name of the sales and inventory
// opportunity workbook.
const OpportunityWorkbookName = "TradeUnity Oportunidades Ventas Inventario"

const (
	topMarginProducts = 20
	topSellers        = 50

	// A product is suggested for promotion above this stock and below
	// this many units sold.
	highStockUnits = 100
	lowSalesUnits  = 10
)

// MarginFOBBins buckets a positive FOB margin percentage. Bounds are
// inclusive on the right.
var MarginFOBBins = NewDecisionList[decimal.Decimal]("200%+",
	Rule[decimal.Decimal]{Label: "0-50%", Match: upTo(50)},
	Rule[decimal.Decimal]{Label: "50-100%", Match: upTo(100)},
	Rule[decimal.Decimal]{Label: "100-150%", Match: upTo(150)},
	Rule[decimal.Decimal]{Label: "150-200%", Match: upTo(200)},
)

// MarginPlatformBins buckets a positive platform margin percentage.
var MarginPlatformBins = NewDecisionList[decimal.Decimal]("50%+",
	Rule[decimal.Decimal]{Label: "0-10%", Match: upTo(10)},
	Rule[decimal.Decimal]{Label: "10-20%", Match: upTo(20)},
	Rule[decimal.Decimal]{Label: "20-30%", Match: upTo(30)},
	Rule[decimal.Decimal]{Label: "30-50%", Match: upTo(50)},
)

func upTo(limit int64) func(decimal.Decimal) bool {
	bound := decimal.NewFromInt(limit)
	return func(v decimal.Decimal) bool { return v.LessThanOrEqual(bound) }
}

// CustomerProduct folds the lines of one customer and one SKU.
type CustomerProduct struct {
	Email     string
	FirstName string
	LastName  string
	TaxID     string

	SKU         string
	Name        string
	Brand       string
	Category    string
	CEGCategory string

	Orders         map[string]struct{}
	Cases          decimal.Decimal
	Units          decimal.Decimal
	Revenue        decimal.Decimal
	RevenueWithTax decimal.Decimal
	Volume         decimal.Decimal
	UnitPrices     []decimal.Decimal
	BoxPrices      []decimal.Decimal
	FOB            decimal.Decimal
	PlatformPrice  decimal.Decimal

	First     time.Time
	Last      time.Time
	Purchases []Purchase
}

// AvgUnitPrice is the mean of the positive unit prices paid.
func (cp *CustomerProduct) AvgUnitPrice() decimal.NullDecimal {
	return Mean(cp.UnitPrices)
}

// CustomerProducts groups lines by customer e-mail and SKU, sorted by
// e-mail and then by revenue with tax descending. Lines without either key
// are skipped.
func CustomerProducts(lines []*models.EnrichedLine) []*CustomerProduct {
	type key struct{ email, sku string }
	index := make(map[key]*CustomerProduct)
	var out []*CustomerProduct

	for _, l := range lines {
		email, sku := parse.Email(l.CustomerEmail), parse.Key(l.SKU)
		if email == "" || sku == "" {
			continue
		}
		k := key{email, sku}
		cp, ok := index[k]
		if !ok {
			cp = &CustomerProduct{
				Email:     email,
				FirstName: l.CustomerFirstName,
				LastName:  l.CustomerLastName,
				TaxID:     l.CustomerTaxID,
				SKU:       sku,
				Name:      l.ProductName,
				Brand:     l.Brand,
				Category:  l.Category,
				Orders:    make(map[string]struct{}),
			}
			if l.CEG != nil {
				cp.CEGCategory = l.CEG.CategoryName
			}
			index[k] = cp
			out = append(out, cp)
		}

		if l.OrderID != "" {
			cp.Orders[l.OrderID] = struct{}{}
		}
		cp.Cases = cp.Cases.Add(l.Cases)
		cp.Units = cp.Units.Add(l.UnitQuantity)
		cp.Revenue = cp.Revenue.Add(l.LineTotal)
		cp.RevenueWithTax = cp.RevenueWithTax.Add(l.LineTotalWithTax)
		cp.Volume = cp.Volume.Add(l.Volume)
		if l.UnitSalePrice.Valid && l.UnitSalePrice.Decimal.IsPositive() {
			cp.UnitPrices = append(cp.UnitPrices, l.UnitSalePrice.Decimal)
		}
		if l.SalePrice.IsPositive() {
			cp.BoxPrices = append(cp.BoxPrices, l.SalePrice)
		}
		if !cp.FOB.IsPositive() {
			cp.FOB = l.FOB
		}
		if !cp.PlatformPrice.IsPositive() {
			cp.PlatformPrice = l.PlatformPrice
		}
		if !l.OrderDate.IsZero() {
			if cp.First.IsZero() || l.OrderDate.Before(cp.First) {
				cp.First = l.OrderDate
			}
			if l.OrderDate.After(cp.Last) {
				cp.Last = l.OrderDate
			}
		}
		cp.Purchases = append(cp.Purchases, Purchase{Date: l.OrderDate, Units: l.UnitQuantity})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Email != out[b].Email {
			return out[a].Email < out[b].Email
		}
		return out[a].RevenueWithTax.GreaterThan(out[b].RevenueWithTax)
	})
	return out
}

// priceGap returns price - cost and the gap as a percentage of cost, zero
// when either side is unknown.
func priceGap(price decimal.NullDecimal, cost decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if !price.Valid {
		return decimal.Zero, decimal.Zero
	}
	diff := price.Decimal.Sub(cost)
	return diff, ShareOf(diff, cost)
}

// lineGroup aggregates lines sharing a brand or category.
type lineGroup struct {
	key            string
	skus           map[string]struct{}
	brands         map[string]struct{}
	customers      map[string]struct{}
	cases          decimal.Decimal
	units          decimal.Decimal
	revenue        decimal.Decimal
	revenueWithTax decimal.Decimal
	volume         decimal.Decimal
	unitPrices     []decimal.Decimal
	marginFOB      []decimal.Decimal
	marginPlatform []decimal.Decimal
}

// groupLines folds lines by key, sorted by revenue with tax descending.
// Lines with a blank key are skipped.
func groupLines(lines []*models.EnrichedLine, key func(*models.EnrichedLine) string) []*lineGroup {
	index := make(map[string]*lineGroup)
	var out []*lineGroup
	for _, l := range lines {
		k := key(l)
		if k == "" {
			continue
		}
		g, ok := index[k]
		if !ok {
			g = &lineGroup{
				key:       k,
				skus:      make(map[string]struct{}),
				brands:    make(map[string]struct{}),
				customers: make(map[string]struct{}),
			}
			index[k] = g
			out = append(out, g)
		}
		if sku := parse.Key(l.SKU); sku != "" {
			g.skus[sku] = struct{}{}
		}
		if l.Brand != "" {
			g.brands[l.Brand] = struct{}{}
		}
		if email := parse.Email(l.CustomerEmail); email != "" {
			g.customers[email] = struct{}{}
		}
		g.cases = g.cases.Add(l.Cases)
		g.units = g.units.Add(l.UnitQuantity)
		g.revenue = g.revenue.Add(l.LineTotal)
		g.revenueWithTax = g.revenueWithTax.Add(l.LineTotalWithTax)
		g.volume = g.volume.Add(l.Volume)
		if l.UnitSalePrice.Valid {
			g.unitPrices = append(g.unitPrices, l.UnitSalePrice.Decimal)
		}
		if l.MarginFOBPct.Valid {
			g.marginFOB = append(g.marginFOB, l.MarginFOBPct.Decimal)
		}
		if l.MarginPlatformPct.Valid {
			g.marginPlatform = append(g.marginPlatform, l.MarginPlatformPct.Decimal)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].revenueWithTax.GreaterThan(out[b].revenueWithTax) })
	return out
}

// quarterKey formats t as "2024-Q1".
func quarterKey(t time.Time) string {
	return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}

type opportunityReport struct {
	quarterStartYear int
	logger           *zap.Logger
}

// NewOpportunityReport builds the sales and inventory opportunity workbook.
// The quarterly summary covers quarterStartYear onwards.
func NewOpportunityReport(quarterStartYear int, logger *zap.Logger) ReportBuilder {
	return &opportunityReport{quarterStartYear: quarterStartYear, logger: logger.Named("opportunity-report")}
}

func (r *opportunityReport) Report() string { return config.ReportOpportunities }

func (r *opportunityReport) Requires() []string {
	return []string{ArtifactEnriched, ArtifactCatalog, ArtifactStock}
}

func (r *opportunityReport) Build(data *ReportData) (*workbook.Workbook, error) {
	book := workbook.New(OpportunityWorkbookName, config.ReportOpportunities)
	pairs := CustomerProducts(data.Lines)
	products, order := SalesBySKU(data.Lines)

	r.addCustomerProducts(book, pairs)
	r.addProbabilities(book, pairs, data.ReferenceDate)
	potential := r.addPotentialCustomers(book, pairs, data)
	r.addProducts(book, products, order)
	r.addGroups(book, data.Lines)
	r.addMarginBins(book, data.Lines)
	r.addTopProducts(book, products, order)
	suggestions := r.addSuggestions(book, products, data)
	r.addQuarterly(book, data.Lines)
	r.addCustomerSummary(book, data.Lines)

	r.logger.Info("Built opportunity workbook",
		zap.Int("customer_products", len(pairs)),
		zap.Int("potential_rows", potential),
		zap.Int("suggestions", suggestions))

	return book, nil
}

func (r *opportunityReport) addCustomerProducts(book *workbook.Workbook, pairs []*CustomerProduct) {
	sheet := book.AddSheet("01_Cliente_Producto",
		"Email Cliente", "SKU", "Nombre Cliente", "Apellido Cliente", "CUIT Cliente",
		"Nombre Producto", "Marca", "Categoría (2° Nivel)", "Categoría CEG",
		"Número de Órdenes", "Cantidad Cajas Total", "Cantidad Unidades Total",
		"Precio Unitario Promedio", "Precio Unitario Máximo", "Precio Unitario Mínimo",
		"Precio Caja Promedio", "FOB Unitario", "Precio Plataforma Unitario",
		"Total Facturado (USD)", "Total Facturado con IVA (USD)", "Volumen Total (m³)",
		"Primera Compra", "Última Compra",
		"Diferencia vs FOB", "% Diferencia vs FOB",
		"Diferencia vs Plataforma", "% Diferencia vs Plataforma")

	for _, cp := range pairs {
		avg := cp.AvgUnitPrice()
		lo, hi := MinMax(cp.UnitPrices)
		fobDiff, fobPct := priceGap(avg, cp.FOB)
		platDiff, platPct := priceGap(avg, cp.PlatformPrice)
		sheet.AddRow(cp.Email, cp.SKU, cp.FirstName, cp.LastName, cp.TaxID,
			cp.Name, cp.Brand, cp.Category, cp.CEGCategory,
			len(cp.Orders), cp.Cases, cp.Units,
			avg, hi, lo,
			Mean(cp.BoxPrices), cp.FOB, cp.PlatformPrice,
			cp.Revenue, cp.RevenueWithTax, cp.Volume,
			cp.First, cp.Last,
			fobDiff, fobPct, platDiff, platPct)
	}
}

func (r *opportunityReport) addProbabilities(book *workbook.Workbook, pairs []*CustomerProduct, ref time.Time) {
	sheet := book.AddSheet("02_Probabilidad_Compra",
		"Email Cliente", "SKU", "Nombre Producto", "Número de Compras",
		"Días desde Última Compra", "Intervalo Promedio (días)",
		"Factor Frecuencia", "Factor Tiempo", "Factor Recencia",
		"Probabilidad de Compra (%)", "Cantidad Promedio por Compra",
		"Cantidad Esperada (Probabilística)")

	for _, cp := range pairs {
		est := EstimatePurchase(cp.Purchases, ref)
		sheet.AddRow(cp.Email, cp.SKU, cp.Name, est.Purchases,
			est.DaysSinceLast, decimal.NewFromFloat(est.AvgInterval),
			decimal.NewFromFloat(est.FrequencyFactor), decimal.NewFromFloat(est.TimeFactor),
			decimal.NewFromFloat(est.RecencyFactor),
			decimal.NewFromFloat(est.Probability*100), est.AvgQuantity,
			est.ExpectedQuantity)
	}
}

// stockFor finds the stock snapshot of a SKU through its catalog ERP ref.
func stockFor(data *ReportData, sku string) (*models.CatalogEntry, *models.StockSnapshot) {
	cat := data.Catalog.BySKU(sku)
	if cat == nil || cat.ERPRef == "" {
		return cat, nil
	}
	return cat, data.Stock.ByERPRef(cat.ERPRef)
}

// addPotentialCustomers lists, for every SKU with stock and sales, each past
// buyer with a repurchase estimate. Rows are sorted by SKU and then by
// probability descending.
func (r *opportunityReport) addPotentialCustomers(book *workbook.Workbook, pairs []*CustomerProduct, data *ReportData) int {
	sheet := book.AddSheet("03_SKU_Clientes_Potenciales",
		"SKU", "Nombre Producto", "Marca", "Categoría", "Stock Cajas", "Stock Unidades",
		"Email Cliente", "Nombre Cliente", "Apellido Cliente", "CUIT Cliente",
		"Número de Compras", "Total Unidades Compradas Históricas", "Cantidad Promedio por Compra",
		"Última Compra", "Días desde Última Compra", "Precio Promedio Pagado",
		"FOB Unitario", "Precio Plataforma Unitario", "Total Facturado Histórico",
		"Probabilidad de Compra (%)", "Cantidad Esperada (Probabilística)", "Stock Restante Esperado")

	type row struct {
		cp   *CustomerProduct
		cat  *models.CatalogEntry
		snap *models.StockSnapshot
		est  PurchaseEstimate
	}
	var rows []row
	for _, cp := range pairs {
		cat, snap := stockFor(data, cp.SKU)
		if snap == nil {
			continue
		}
		rows = append(rows, row{cp: cp, cat: cat, snap: snap, est: EstimatePurchase(cp.Purchases, data.ReferenceDate)})
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].cp.SKU != rows[b].cp.SKU {
			return rows[a].cp.SKU < rows[b].cp.SKU
		}
		return rows[a].est.Probability > rows[b].est.Probability
	})

	for _, x := range rows {
		fob, platform := CostBasis(x.cat, data.Prices.BySKU(x.cp.SKU))
		var daysSince any
		if !x.cp.Last.IsZero() {
			daysSince = x.est.DaysSinceLast
		}
		units := x.snap.Units()
		sheet.AddRow(x.cp.SKU, x.cat.Name, x.cat.Brand, x.cat.Category, x.snap.Cases, units,
			x.cp.Email, x.cp.FirstName, x.cp.LastName, x.cp.TaxID,
			x.est.Purchases, x.cp.Units, x.est.AvgQuantity,
			x.cp.Last, daysSince, x.cp.AvgUnitPrice(),
			fob, platform, x.cp.RevenueWithTax,
			decimal.NewFromFloat(x.est.Probability*100), x.est.ExpectedQuantity,
			ExpectedRemainingStock(units, x.est))
	}
	return len(rows)
}

func (r *opportunityReport) addProducts(book *workbook.Workbook, products map[string]*ProductSales, order []string) {
	sheet := book.AddSheet("04_Por_Producto",
		"SKU", "Nombre Producto", "Marca", "Categoría (2° Nivel)", "Categoría CEG",
		"Cantidad Cajas", "Cantidad Unidades", "Facturación Neta (USD)",
		"Facturación con IVA (USD)", "Precio Promedio Unitario", "FOB Unitario",
		"Precio Plataforma Unitario", "Margen % FOB", "Margen % Plataforma",
		"Volumen Total (m³)", "Margen Absoluto FOB", "Margen Absoluto Plataforma",
		"Clientes Únicos", "Órdenes")

	for _, p := range byRevenue(products, order) {
		avg := Mean(p.UnitPrices)
		var absFOB, absPlatform decimal.NullDecimal
		if avg.Valid {
			absFOB = decimal.NewNullDecimal(avg.Decimal.Sub(p.FOB).Mul(p.Units))
			absPlatform = decimal.NewNullDecimal(avg.Decimal.Sub(p.PlatformPrice).Mul(p.Units))
		}
		sheet.AddRow(p.SKU, p.Name, p.Brand, p.Category, p.CEGCategory,
			p.Cases, p.Units, p.Revenue,
			p.RevenueWithTax, avg, p.FOB,
			p.PlatformPrice, Mean(p.MarginFOBPct), Mean(p.MarginPlatformPct),
			p.Volume, absFOB, absPlatform,
			len(p.Customers), len(p.Orders))
	}
}

// byRevenue returns the products sorted by revenue with tax descending,
// first-seen order breaking ties.
func byRevenue(products map[string]*ProductSales, order []string) []*ProductSales {
	out := make([]*ProductSales, 0, len(order))
	for _, sku := range order {
		out = append(out, products[sku])
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].RevenueWithTax.GreaterThan(out[b].RevenueWithTax) })
	return out
}

func (r *opportunityReport) addGroups(book *workbook.Workbook, lines []*models.EnrichedLine) {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotalWithTax)
	}

	brands := book.AddSheet("05_Por_Marca",
		"Marca", "Productos Únicos", "Cantidad Cajas", "Cantidad Unidades",
		"Facturación Neta (USD)", "Facturación con IVA (USD)",
		"Precio Promedio Unitario", "Margen % FOB", "Margen % Plataforma",
		"Volumen Total (m³)", "Participación %")
	for _, g := range groupLines(lines, func(l *models.EnrichedLine) string { return l.Brand }) {
		brands.AddRow(g.key, len(g.skus), g.cases, g.units,
			g.revenue, g.revenueWithTax,
			Mean(g.unitPrices), Mean(g.marginFOB), Mean(g.marginPlatform),
			g.volume, ShareOf(g.revenueWithTax, total))
	}

	categories := book.AddSheet("06_Por_Categoria",
		"Categoría (2° Nivel)", "Productos Únicos", "Marcas Únicas",
		"Cantidad Cajas", "Cantidad Unidades", "Facturación Neta (USD)",
		"Facturación con IVA (USD)", "Precio Promedio Unitario",
		"Margen % FOB", "Margen % Plataforma", "Volumen Total (m³)", "Participación %")
	for _, g := range groupLines(lines, func(l *models.EnrichedLine) string { return l.Category }) {
		categories.AddRow(g.key, len(g.skus), len(g.brands),
			g.cases, g.units, g.revenue,
			g.revenueWithTax, Mean(g.unitPrices),
			Mean(g.marginFOB), Mean(g.marginPlatform), g.volume, ShareOf(g.revenueWithTax, total))
	}
}

// marginBin accumulates the lines falling in one margin bucket.
type marginBin struct {
	skus    map[string]struct{}
	revenue decimal.Decimal
	units   decimal.Decimal
}

// addMarginBins buckets lines whose FOB and platform margins are both
// positive.
func (r *opportunityReport) addMarginBins(book *workbook.Workbook, lines []*models.EnrichedLine) {
	fob := make(map[string]*marginBin)
	platform := make(map[string]*marginBin)
	bin := func(bins map[string]*marginBin, label string, l *models.EnrichedLine) {
		b, ok := bins[label]
		if !ok {
			b = &marginBin{skus: make(map[string]struct{})}
			bins[label] = b
		}
		if sku := parse.Key(l.SKU); sku != "" {
			b.skus[sku] = struct{}{}
		}
		b.revenue = b.revenue.Add(l.LineTotalWithTax)
		b.units = b.units.Add(l.UnitQuantity)
	}

	for _, l := range lines {
		if !l.MarginFOBPct.Valid || !l.MarginPlatformPct.Valid ||
			!l.MarginFOBPct.Decimal.IsPositive() || !l.MarginPlatformPct.Decimal.IsPositive() {
			continue
		}
		bin(fob, MarginFOBBins.Classify(l.MarginFOBPct.Decimal), l)
		bin(platform, MarginPlatformBins.Classify(l.MarginPlatformPct.Decimal), l)
	}

	write := func(name, header string, labels []string, bins map[string]*marginBin) {
		sheet := book.AddSheet(name, header, "Productos Únicos", "Facturación Total (USD)", "Unidades Vendidas")
		for _, label := range labels {
			b := bins[label]
			if b == nil {
				sheet.AddRow(label, 0, decimal.Zero, decimal.Zero)
				continue
			}
			sheet.AddRow(label, len(b.skus), b.revenue, b.units)
		}
	}
	write("07_Rangos_Margen_FOB", "Rango Margen FOB", MarginFOBBins.Labels(), fob)
	write("08_Rangos_Margen_Plataforma", "Rango Margen Plataforma", MarginPlatformBins.Labels(), platform)
}

func (r *opportunityReport) addTopProducts(book *workbook.Workbook, products map[string]*ProductSales, order []string) {
	all := byRevenue(products, order)

	var withMargin []*ProductSales
	for _, p := range all {
		if m := Mean(p.MarginFOBPct); m.Valid && m.Decimal.IsPositive() {
			withMargin = append(withMargin, p)
		}
	}
	sort.SliceStable(withMargin, func(a, b int) bool {
		return Mean(withMargin[a].MarginFOBPct).Decimal.GreaterThan(Mean(withMargin[b].MarginFOBPct).Decimal)
	})
	margin := book.AddSheet("09_Top20_Margen",
		"SKU", "Producto", "Marca", "Margen % FOB", "Margen % Plataforma", "Facturación (USD)", "Unidades")
	for _, p := range topN(withMargin, topMarginProducts) {
		margin.AddRow(p.SKU, p.Name, p.Brand, Mean(p.MarginFOBPct), Mean(p.MarginPlatformPct), p.RevenueWithTax, p.Units)
	}

	revenue := book.AddSheet("10_Top50_Facturacion",
		"SKU", "Producto", "Marca", "Facturación Total (USD)", "Unidades", "Cajas")
	for _, p := range topN(all, topSellers) {
		revenue.AddRow(p.SKU, p.Name, p.Brand, p.RevenueWithTax, p.Units, p.Cases)
	}

	byUnits := append([]*ProductSales(nil), all...)
	sort.SliceStable(byUnits, func(a, b int) bool { return byUnits[a].Units.GreaterThan(byUnits[b].Units) })
	units := book.AddSheet("11_Top50_Unidades",
		"SKU", "Producto", "Marca", "Unidades", "Facturación Total (USD)")
	for _, p := range topN(byUnits, topSellers) {
		units.AddRow(p.SKU, p.Name, p.Brand, p.Units, p.RevenueWithTax)
	}
}

// addSuggestions flags sold products whose stock is high and sales low.
func (r *opportunityReport) addSuggestions(book *workbook.Workbook, products map[string]*ProductSales, data *ReportData) int {
	sheet := book.AddSheet("12_Sugerencias",
		"Tipo Análisis", "SKU", "Producto", "Marca", "Stock Unidades",
		"Unidades Vendidas", "Sugerencia", "Prioridad")
	if data.Stock == nil {
		return 0
	}

	high := decimal.NewFromInt(highStockUnits)
	low := decimal.NewFromInt(lowSalesUnits)
	n := 0
	for _, snap := range data.Stock.Snapshots {
		cat := data.Catalog.ByERPRef(snap.ERPRef)
		if cat == nil {
			continue
		}
		p, ok := products[parse.Key(cat.SKU)]
		if !ok {
			continue
		}
		stock := snap.Units()
		if !stock.GreaterThan(high) || !p.Units.LessThan(low) {
			continue
		}
		sheet.AddRow("Stock Alto / Ventas Bajas", p.SKU, cat.Name, cat.Brand, stock, p.Units,
			fmt.Sprintf("Considerar promoción o descuento. Stock %s unidades vs %s vendidas.",
				stock.StringFixed(0), p.Units.StringFixed(0)),
			"ALTA")
		n++
	}
	return n
}

// quarter accumulates the lines of one calendar quarter.
type quarter struct {
	key            string
	orders         map[string]decimal.Decimal
	items          int
	units          decimal.Decimal
	revenue        decimal.Decimal
	revenueWithTax decimal.Decimal
	customers      map[string]struct{}
	skus           map[string]struct{}
	newCustomers   int
}

func (r *opportunityReport) addQuarterly(book *workbook.Workbook, lines []*models.EnrichedLine) {
	sheet := book.AddSheet("13_Resumen_Trimestral",
		"Trimestre", "Órdenes", "Items Vendidos", "Unidades Vendidas",
		"Facturación Neta (USD)", "Facturación con IVA (USD)",
		"Clientes Únicos", "Clientes Nuevos", "Productos Únicos",
		"Promedio de Orden (USD)", "Mediana de Orden (USD)")

	newQuarter := func(key string) *quarter {
		return &quarter{
			key:       key,
			orders:    make(map[string]decimal.Decimal),
			customers: make(map[string]struct{}),
			skus:      make(map[string]struct{}),
		}
	}
	total := newQuarter("Total")
	index := make(map[string]*quarter)
	for _, l := range lines {
		if l.OrderDate.IsZero() || l.OrderDate.Year() < r.quarterStartYear {
			continue
		}
		key := quarterKey(l.OrderDate)
		q, ok := index[key]
		if !ok {
			q = newQuarter(key)
			index[key] = q
		}
		for _, acc := range []*quarter{total, q} {
			if l.OrderID != "" {
				acc.orders[l.OrderID] = acc.orders[l.OrderID].Add(l.LineTotalWithTax)
			}
			acc.items++
			acc.units = acc.units.Add(l.UnitQuantity)
			acc.revenue = acc.revenue.Add(l.LineTotal)
			acc.revenueWithTax = acc.revenueWithTax.Add(l.LineTotalWithTax)
			if email := parse.Email(l.CustomerEmail); email != "" {
				acc.customers[email] = struct{}{}
			}
			if sku := parse.Key(l.SKU); sku != "" {
				acc.skus[sku] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]struct{})
	quarters := make([]*quarter, 0, len(keys)+1)
	for _, k := range keys {
		q := index[k]
		for email := range q.customers {
			if _, ok := seen[email]; !ok {
				q.newCustomers++
				seen[email] = struct{}{}
			}
		}
		quarters = append(quarters, q)
	}
	total.newCustomers = len(seen)
	quarters = append([]*quarter{total}, quarters...)

	for _, q := range quarters {
		orderTotals := make([]decimal.Decimal, 0, len(q.orders))
		for _, v := range q.orders {
			orderTotals = append(orderTotals, v)
		}
		sheet.AddRow(q.key, len(q.orders), q.items, q.units,
			q.revenue, q.revenueWithTax,
			len(q.customers), q.newCustomers, len(q.skus),
			Mean(orderTotals), Median(orderTotals))
	}
}

func (r *opportunityReport) addCustomerSummary(book *workbook.Workbook, lines []*models.EnrichedLine) {
	type summary struct {
		email, first, last, taxID string
		orders, skus              map[string]struct{}
		cases, units              decimal.Decimal
		revenue, revenueWithTax   decimal.Decimal
		unitPrices                []decimal.Decimal
	}
	index := make(map[string]*summary)
	var out []*summary
	for _, l := range lines {
		email := parse.Email(l.CustomerEmail)
		if email == "" {
			continue
		}
		s, ok := index[email]
		if !ok {
			s = &summary{
				email: email, first: l.CustomerFirstName, last: l.CustomerLastName, taxID: l.CustomerTaxID,
				orders: make(map[string]struct{}), skus: make(map[string]struct{}),
			}
			index[email] = s
			out = append(out, s)
		}
		if l.OrderID != "" {
			s.orders[l.OrderID] = struct{}{}
		}
		if sku := parse.Key(l.SKU); sku != "" {
			s.skus[sku] = struct{}{}
		}
		s.cases = s.cases.Add(l.Cases)
		s.units = s.units.Add(l.UnitQuantity)
		s.revenue = s.revenue.Add(l.LineTotal)
		s.revenueWithTax = s.revenueWithTax.Add(l.LineTotalWithTax)
		if l.UnitSalePrice.Valid {
			s.unitPrices = append(s.unitPrices, l.UnitSalePrice.Decimal)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].revenueWithTax.GreaterThan(out[b].revenueWithTax) })

	sheet := book.AddSheet("14_Resumen_por_Cliente",
		"Email Cliente", "Nombre", "Apellido", "CUIT",
		"Órdenes", "Productos Únicos", "Cajas Totales", "Unidades Totales",
		"Facturación Neta (USD)", "Facturación con IVA (USD)", "Precio Promedio Unitario")
	for _, s := range out {
		sheet.AddRow(s.email, s.first, s.last, s.taxID,
			len(s.orders), len(s.skus), s.cases, s.units,
			s.revenue, s.revenueWithTax, Mean(s.unitPrices))
	}
}
