package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/workbook"
)

// CustomerWorkbookName is the file name of the customer intelligence workbook.
const CustomerWorkbookName = "TradeUnity Customer Intelligence"

// notDiversified is shown instead of a brand or vertical for customers
// without a dominant one.
const notDiversified = "Diversificado"

var customerColumns = []string{
	"Rank", "Email", "Nombre", "Apellido", "CUIT", "LTV", "Ordenes",
	"Ticket_Promedio", "Dias_Desde_Ultima", "Reincidente", "Cliente_Sano",
	"Segmento_RFV", "Salud_Cliente", "Categoria_Favorita", "Marca_Favorita",
	"Fan_Marca_Nombre", "%_Facturacion_Marca_Dominante", "Es_Fan_Marca",
	"Fiel_Vertical_Nombre", "%_Facturacion_Categoria_Dominante", "Es_Fiel_Vertical",
	"Diversidad_Compra", "Marcas_Unicas", "Categorias_Unicas",
	"Descuento_Promedio_%", "%_Items_Con_Descuento", "Es_Cazador_Descuentos",
	"Tipo_Comprador_Inventario", "Dias_Recepcion_Promedio",
	"Margen_FOB_Promedio_%", "Margen_Plataforma_Promedio_%",
	"%_Compra_Sobre_FOB_Promedio", "%_Compra_Sobre_Plataforma_Promedio",
	"%_Rentabilidad_FOB", "%_Rentabilidad_Plataforma",
	"Es_Oportunista", "Tipo_Comprador_Margen", "Relacion_Volumen_Margen",
	"Unidades_Totales", "SKUs_Unicos", "Primera_Compra", "Ultima_Compra",
}

func brandFanName(c *models.CustomerAggregate) string {
	if c.BrandFan {
		return c.DominantBrand
	}
	return notDiversified
}

func verticalName(c *models.CustomerAggregate) string {
	if c.VerticalLoyal {
		return c.DominantCategory
	}
	return notDiversified
}

func customerRow(rank int, c *models.CustomerAggregate) []any {
	return []any{
		rank, c.Email, c.FirstName, c.LastName, c.TaxID, c.LTV, c.Orders,
		c.AvgTicket, c.DaysSinceLast, c.Repeat, c.Healthy,
		c.Segment, c.Health, c.FavoriteCategory, c.FavoriteBrand,
		brandFanName(c), c.DominantBrandShare, c.BrandFan,
		verticalName(c), c.DominantCategoryShare, c.VerticalLoyal,
		c.Diversity, c.UniqueBrands, c.UniqueCategories,
		c.AvgDiscountPct, c.DiscountedLinesPct, c.DiscountHunter,
		c.InventoryAge, c.AvgDaysSinceReceipt,
		c.AvgMarginFOBPct, c.AvgMarginPlatformPct,
		c.AvgPurchaseOverFOBPct, c.AvgPurchaseOverPlatformPct,
		c.ProfitabilityFOBPct, c.ProfitabilityPlatformPct,
		c.Opportunist, c.MarginTier, c.VolumeMarginClass,
		c.Units, c.UniqueSKUs, c.FirstPurchase, c.LastPurchase,
	}
}

// addCustomers writes customers ranked 1..n in the given order.
func addCustomers(sheet *workbook.Sheet, customers []*models.CustomerAggregate) {
	for i, c := range customers {
		sheet.AddRow(customerRow(i+1, c)...)
	}
}

func filterCustomers(customers []*models.CustomerAggregate, keep func(*models.CustomerAggregate) bool) []*models.CustomerAggregate {
	var out []*models.CustomerAggregate
	for _, c := range customers {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// customerGroup is one row of a per-label summary.
type customerGroup struct {
	label     string
	customers []*models.CustomerAggregate
	ltv       decimal.Decimal
	orders    int
}

// groupCustomers groups customers by label, in the order of labels. Labels
// without customers are left out.
func groupCustomers(customers []*models.CustomerAggregate, labels []string, label func(*models.CustomerAggregate) string) []*customerGroup {
	index := make(map[string]*customerGroup, len(labels))
	out := make([]*customerGroup, 0, len(labels))
	for _, l := range labels {
		g := &customerGroup{label: l}
		index[l] = g
		out = append(out, g)
	}
	for _, c := range customers {
		l := label(c)
		g, ok := index[l]
		if !ok {
			g = &customerGroup{label: l}
			index[l] = g
			out = append(out, g)
		}
		g.customers = append(g.customers, c)
		g.ltv = g.ltv.Add(c.LTV)
		g.orders += c.Orders
	}

	nonEmpty := out[:0]
	for _, g := range out {
		if len(g.customers) > 0 {
			nonEmpty = append(nonEmpty, g)
		}
	}
	return nonEmpty
}

// meanOf averages a per-customer metric over the group.
func (g *customerGroup) meanOf(metric func(*models.CustomerAggregate) decimal.Decimal) decimal.NullDecimal {
	values := make([]decimal.Decimal, len(g.customers))
	for i, c := range g.customers {
		values[i] = metric(c)
	}
	return Mean(values)
}

// meanKnown averages a nullable metric over the customers that have it.
func (g *customerGroup) meanKnown(metric func(*models.CustomerAggregate) decimal.NullDecimal) decimal.NullDecimal {
	values := make([]decimal.NullDecimal, len(g.customers))
	for i, c := range g.customers {
		values[i] = metric(c)
	}
	return Mean(Known(values))
}

func (g *customerGroup) sumOf(metric func(*models.CustomerAggregate) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, c := range g.customers {
		total = total.Add(metric(c))
	}
	return total
}

type customerReport struct {
	topN   int
	logger *zap.Logger
}

// NewCustomerReport builds the customer intelligence workbook. topN sizes
// the top customers sheet.
func NewCustomerReport(topN int, logger *zap.Logger) ReportBuilder {
	if topN <= 0 {
		topN = 100
	}
	return &customerReport{topN: topN, logger: logger.Named("customer-report")}
}

func (r *customerReport) Report() string { return config.ReportCustomers }

func (r *customerReport) Requires() []string {
	return []string{ArtifactCustomers}
}

func (r *customerReport) Build(data *ReportData) (*workbook.Workbook, error) {
	customers := data.Customers
	book := workbook.New(CustomerWorkbookName, config.ReportCustomers)

	totalLTV := decimal.Zero
	for _, c := range customers {
		totalLTV = totalLTV.Add(c.LTV)
	}
	count := decimal.NewFromInt(int64(len(customers)))
	clientShare := func(g *customerGroup) decimal.Decimal {
		return ShareOf(decimal.NewFromInt(int64(len(g.customers))), count)
	}

	r.addSummary(book.AddSheet("00_Resumen_Ejecutivo", "Métrica", "Valor"), customers, totalLTV)

	addCustomers(book.AddSheet(fmt.Sprintf("01_TOP_%d_Clientes", r.topN), customerColumns...), topN(customers, r.topN))
	addCustomers(book.AddSheet("02_Clientes_80_20", customerColumns...),
		filterCustomers(customers, func(c *models.CustomerAggregate) bool { return c.Top80 }))
	addCustomers(book.AddSheet("03_Clientes_Reincidentes", customerColumns...),
		filterCustomers(customers, func(c *models.CustomerAggregate) bool { return c.Repeat }))
	addCustomers(book.AddSheet("04_Clientes_Sanos", customerColumns...),
		filterCustomers(customers, func(c *models.CustomerAggregate) bool { return c.Healthy }))

	rfv := book.AddSheet("05_Segmentacion_RFV",
		"Segmento", "Cantidad_Clientes", "Facturacion_Total", "Total_Ordenes", "Ticket_Promedio", "%_Clientes", "%_Facturacion")
	for _, g := range groupCustomers(customers, RFVSegments.Labels(), func(c *models.CustomerAggregate) string { return c.Segment }) {
		rfv.AddRow(g.label, len(g.customers), g.ltv, g.orders,
			g.meanOf(func(c *models.CustomerAggregate) decimal.Decimal { return c.AvgTicket }),
			clientShare(g), ShareOf(g.ltv, totalLTV))
	}

	health := book.AddSheet("06_Analisis_Salud",
		"Salud", "Cantidad_Clientes", "Facturacion_Total", "Total_Ordenes", "%_Clientes", "%_Facturacion")
	for _, g := range groupCustomers(customers, HealthClasses.Labels(), func(c *models.CustomerAggregate) string { return c.Health }) {
		health.AddRow(g.label, len(g.customers), g.ltv, g.orders, clientShare(g), ShareOf(g.ltv, totalLTV))
	}

	fans := filterCustomers(customers, func(c *models.CustomerAggregate) bool { return c.BrandFan })
	fanSheet := book.AddSheet("07_Fans_de_Marcas",
		"Rank", "Email", "Nombre", "Apellido", "CUIT", "LTV", "Ordenes",
		"Fan_Marca_Nombre", "Marca_Dominante", "%_Facturacion_Marca_Dominante",
		"Marcas_Unicas", "Segmento_RFV", "Salud_Cliente")
	for i, c := range fans {
		fanSheet.AddRow(i+1, c.Email, c.FirstName, c.LastName, c.TaxID, c.LTV, c.Orders,
			brandFanName(c), c.DominantBrand, c.DominantBrandShare,
			c.UniqueBrands, c.Segment, c.Health)
	}

	loyal := filterCustomers(customers, func(c *models.CustomerAggregate) bool { return c.VerticalLoyal })
	loyalSheet := book.AddSheet("08_Fieles_a_Verticales",
		"Rank", "Email", "Nombre", "Apellido", "CUIT", "LTV", "Ordenes",
		"Fiel_Vertical_Nombre", "Categoria_Dominante", "%_Facturacion_Categoria_Dominante",
		"Categorias_Unicas", "Segmento_RFV", "Salud_Cliente")
	for i, c := range loyal {
		loyalSheet.AddRow(i+1, c.Email, c.FirstName, c.LastName, c.TaxID, c.LTV, c.Orders,
			verticalName(c), c.DominantCategory, c.DominantCategoryShare,
			c.UniqueCategories, c.Segment, c.Health)
	}

	diversity := book.AddSheet("09_Diversidad_Compra",
		"Diversidad", "Cantidad_Clientes", "Facturacion_Total", "Total_Ordenes", "Ticket_Promedio",
		"Marcas_Promedio", "Categorias_Promedio", "%_Clientes", "%_Facturacion")
	for _, g := range groupCustomers(customers, DiversityClasses.Labels(), func(c *models.CustomerAggregate) string { return c.Diversity }) {
		diversity.AddRow(g.label, len(g.customers), g.ltv, g.orders,
			g.meanOf(func(c *models.CustomerAggregate) decimal.Decimal { return c.AvgTicket }),
			g.meanOf(func(c *models.CustomerAggregate) decimal.Decimal { return decimal.NewFromInt(int64(c.UniqueBrands)) }),
			g.meanOf(func(c *models.CustomerAggregate) decimal.Decimal { return decimal.NewFromInt(int64(c.UniqueCategories)) }),
			clientShare(g), ShareOf(g.ltv, totalLTV))
	}

	hunters := filterCustomers(customers, func(c *models.CustomerAggregate) bool { return c.DiscountHunter })
	sort.SliceStable(hunters, func(a, b int) bool { return hunters[a].AvgDiscountPct.GreaterThan(hunters[b].AvgDiscountPct) })
	hunterSheet := book.AddSheet("10_Cazadores_Descuentos",
		"Rank", "Email", "Nombre", "Apellido", "CUIT", "LTV", "Ordenes",
		"Descuento_Promedio_%", "Descuento_Maximo_%", "%_Items_Con_Descuento",
		"Ticket_Promedio", "Segmento_RFV", "Salud_Cliente")
	for i, c := range hunters {
		hunterSheet.AddRow(i+1, c.Email, c.FirstName, c.LastName, c.TaxID, c.LTV, c.Orders,
			c.AvgDiscountPct, c.MaxDiscountPct, c.DiscountedLinesPct,
			c.AvgTicket, c.Segment, c.Health)
	}

	age := book.AddSheet("11_Antiguedad_Inventario",
		"Tipo_Comprador", "Cantidad_Clientes", "Facturacion_Total", "Total_Ordenes",
		"Dias_Recepcion_Promedio", "Dias_Recepcion_Mediana", "%_Clientes", "%_Facturacion")
	for _, g := range groupCustomers(customers, InventoryAgeClasses.Labels(), func(c *models.CustomerAggregate) string { return c.InventoryAge }) {
		age.AddRow(g.label, len(g.customers), g.ltv, g.orders,
			g.meanKnown(func(c *models.CustomerAggregate) decimal.NullDecimal { return c.AvgDaysSinceReceipt }),
			g.meanKnown(func(c *models.CustomerAggregate) decimal.NullDecimal { return c.MedianDaysSinceReceipt }),
			clientShare(g), ShareOf(g.ltv, totalLTV))
	}

	r.addLoyaltyGroups(book.AddSheet("12_Top_Fans_por_Marca",
		"Marca", "Cantidad_Fans", "Facturacion_Total", "Total_Ordenes", "%_Facturacion"),
		fans, brandFanName, totalLTV)
	r.addLoyaltyGroups(book.AddSheet("13_Top_Fieles_por_Vertical",
		"Vertical", "Cantidad_Fieles", "Facturacion_Total", "Total_Ordenes", "%_Facturacion"),
		loyal, verticalName, totalLTV)

	margins := book.AddSheet("14_Analisis_Margenes",
		"Tipo_Comprador", "Cantidad_Clientes", "Facturacion_Total", "Total_Ordenes",
		"Margen_FOB_Promedio", "Margen_Plataforma_Promedio", "Ganancia_FOB_Total", "Ganancia_Plataforma_Total",
		"%_Clientes", "%_Facturacion", "%_Rentabilidad_FOB", "%_Rentabilidad_Plataforma")
	for _, g := range groupCustomers(customers, MarginTiers.Labels(), func(c *models.CustomerAggregate) string { return c.MarginTier }) {
		profitFOB := g.sumOf(func(c *models.CustomerAggregate) decimal.Decimal { return c.EstimatedProfitFOB })
		profitPlatform := g.sumOf(func(c *models.CustomerAggregate) decimal.Decimal { return c.EstimatedProfitPlatform })
		margins.AddRow(g.label, len(g.customers), g.ltv, g.orders,
			g.meanKnown(func(c *models.CustomerAggregate) decimal.NullDecimal { return c.AvgMarginFOBPct }),
			g.meanKnown(func(c *models.CustomerAggregate) decimal.NullDecimal { return c.AvgMarginPlatformPct }),
			profitFOB, profitPlatform,
			clientShare(g), ShareOf(g.ltv, totalLTV),
			ShareOf(profitFOB, g.ltv), ShareOf(profitPlatform, g.ltv))
	}

	opportunists := filterCustomers(customers, func(c *models.CustomerAggregate) bool { return c.Opportunist })
	oppSheet := book.AddSheet("15_Oportunistas",
		"Rank", "Email", "Nombre", "Apellido", "CUIT", "LTV", "Ordenes",
		"Margen_FOB_Promedio_%", "Margen_Plataforma_Promedio_%",
		"%_Compra_Sobre_FOB_Promedio", "%_Compra_Sobre_Plataforma_Promedio",
		"%_Rentabilidad_FOB", "%_Rentabilidad_Plataforma",
		"Tipo_Comprador_Margen", "Descuento_Promedio_%",
		"Es_Cazador_Descuentos", "Segmento_RFV", "Salud_Cliente")
	for i, c := range opportunists {
		oppSheet.AddRow(i+1, c.Email, c.FirstName, c.LastName, c.TaxID, c.LTV, c.Orders,
			c.AvgMarginFOBPct, c.AvgMarginPlatformPct,
			c.AvgPurchaseOverFOBPct, c.AvgPurchaseOverPlatformPct,
			c.ProfitabilityFOBPct, c.ProfitabilityPlatformPct,
			c.MarginTier, c.AvgDiscountPct,
			c.DiscountHunter, c.Segment, c.Health)
	}

	relation := book.AddSheet("16_Correlacion_Volumen_Margen",
		"Relacion", "Cantidad_Clientes", "Facturacion_Total",
		"Margen_FOB_Promedio", "Margen_Plataforma_Promedio", "%_Clientes", "%_Facturacion")
	for _, g := range groupCustomers(customers, VolumeMarginClasses.Labels(), func(c *models.CustomerAggregate) string { return c.VolumeMarginClass }) {
		relation.AddRow(g.label, len(g.customers), g.ltv,
			g.meanKnown(func(c *models.CustomerAggregate) decimal.NullDecimal { return c.AvgMarginFOBPct }),
			g.meanKnown(func(c *models.CustomerAggregate) decimal.NullDecimal { return c.AvgMarginPlatformPct }),
			clientShare(g), ShareOf(g.ltv, totalLTV))
	}

	all := book.AddSheet("17_Todos_Los_Clientes", append(append([]string{}, customerColumns...), "Dias_Recepcion_Mediana")...)
	for i, c := range customers {
		all.AddRow(append(customerRow(i+1, c), c.MedianDaysSinceReceipt)...)
	}

	r.logger.Info("Built customer workbook",
		zap.Int("customers", len(customers)),
		zap.Int("brand_fans", len(fans)),
		zap.Int("opportunists", len(opportunists)))

	return book, nil
}

// addLoyaltyGroups writes one row per brand or vertical, most followers first.
func (r *customerReport) addLoyaltyGroups(sheet *workbook.Sheet, customers []*models.CustomerAggregate, label func(*models.CustomerAggregate) string, totalLTV decimal.Decimal) {
	groups := groupCustomers(customers, nil, label)
	sort.SliceStable(groups, func(a, b int) bool { return len(groups[a].customers) > len(groups[b].customers) })
	for _, g := range groups {
		sheet.AddRow(g.label, len(g.customers), g.ltv, g.orders, ShareOf(g.ltv, totalLTV))
	}
}

func (r *customerReport) addSummary(sheet *workbook.Sheet, customers []*models.CustomerAggregate, totalLTV decimal.Decimal) {
	var repeat, healthy, top80, orders int
	top80LTV, tickets := decimal.Zero, decimal.Zero
	for _, c := range customers {
		if c.Repeat {
			repeat++
		}
		if c.Healthy {
			healthy++
		}
		if c.Top80 {
			top80++
			top80LTV = top80LTV.Add(c.LTV)
		}
		orders += c.Orders
		tickets = tickets.Add(c.AvgTicket)
	}

	n := decimal.NewFromInt(int64(max(len(customers), 1)))
	usd := func(d decimal.Decimal) string { return "$" + d.StringFixed(2) + " USD" }

	sheet.AddRow("Total Clientes", len(customers))
	sheet.AddRow("Clientes Reincidentes", repeat)
	sheet.AddRow("Clientes Sanos", healthy)
	sheet.AddRow("Clientes 80/20", top80)
	sheet.AddRow("Facturación Total", usd(totalLTV))
	sheet.AddRow("Facturación 80/20", usd(top80LTV))
	sheet.AddRow("Ticket Promedio", usd(tickets.Div(n)))
	sheet.AddRow("Órdenes Promedio", decimal.NewFromInt(int64(orders)).Div(n).StringFixed(2))
	sheet.AddRow("Tasa Reincidencia", ShareOf(decimal.NewFromInt(int64(repeat)), decimal.NewFromInt(int64(len(customers)))).StringFixed(1)+"%")
	sheet.AddRow("LTV Promedio", usd(totalLTV.Div(n)))
}
