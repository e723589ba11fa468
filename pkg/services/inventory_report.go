package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
	"github.com/tradeunity/salesintel/pkg/workbook"
)

// InventoryWorkbookName is the file name of the inventory valuation workbook.
const InventoryWorkbookName = "TradeUnity Inventario Valorizado"

// InventoryItem is one stock row joined with the catalog and its sales.
type InventoryItem struct {
	SKU          string
	ERPRef       string
	Name         string
	Brand        string
	Category     string
	LeafCategory string
	BrandType    string
	EAN          string

	Cases   decimal.Decimal
	PackQty decimal.Decimal
	Units   decimal.Decimal

	FOB           decimal.Decimal
	PlatformPrice decimal.Decimal
	TUPrice       decimal.Decimal
	ValueFOB      decimal.Decimal
	ValuePlatform decimal.Decimal
	ValueTU       decimal.Decimal

	BoxVolume decimal.Decimal
	Volume    decimal.Decimal

	LastImport       time.Time
	DaysSinceImport  *int
	ImportClass      string
	LastReceipt      time.Time
	DaysSinceReceipt *int
	ReceiptClass     string
	Risk             models.StockRisk

	// Sales is nil when the product never sold.
	Sales *ProductSales
}

// Sold reports whether the product has any sales.
func (i *InventoryItem) Sold() bool {
	return i.Sales != nil
}

// UnitsSold returns the units sold, zero when never sold.
func (i *InventoryItem) UnitsSold() decimal.Decimal {
	if i.Sales == nil {
		return decimal.Zero
	}
	return i.Sales.Units
}

// Rotation is units sold over units in stock, zero without stock.
func (i *InventoryItem) Rotation() decimal.Decimal {
	if !i.Units.IsPositive() {
		return decimal.Zero
	}
	return i.UnitsSold().Div(i.Units)
}

// BuildInventory joins every stock snapshot with the catalog (by ERP
// reference) and the per-SKU sales. Items are sorted by TU value, highest first.
func BuildInventory(stock *models.Inventory, catalog *models.Catalog, sales map[string]*ProductSales, ref time.Time) []*InventoryItem {
	if stock == nil {
		return nil
	}
	items := make([]*InventoryItem, 0, len(stock.Snapshots))
	for _, snap := range stock.Snapshots {
		items = append(items, inventoryItem(snap, catalog.ByERPRef(snap.ERPRef), sales, ref))
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].ValueTU.GreaterThan(items[b].ValueTU)
	})
	return items
}

func inventoryItem(snap *models.StockSnapshot, cat *models.CatalogEntry, sales map[string]*ProductSales, ref time.Time) *InventoryItem {
	item := &InventoryItem{
		SKU:       parse.Key(snap.ERPRef),
		ERPRef:    snap.ERPRef,
		Name:      snap.Name,
		Cases:     snap.Cases,
		PackQty:   decimal.NewFromInt(int64(snap.UnitsPerCase)),
		BoxVolume: snap.VolumePerCase,
	}

	if cat != nil {
		item.SKU = parse.Key(cat.SKU)
		if cat.Name != "" {
			item.Name = cat.Name
		}
		item.Brand = cat.Brand
		item.Category = cat.Category
		item.LeafCategory = cat.LeafCategory
		item.BrandType = cat.BrandType
		item.EAN = cat.EAN
		if cat.HasPackQty() {
			item.PackQty = decimal.NewFromInt(int64(cat.PackQty))
		}
		if cat.BoxVolume.IsPositive() {
			item.BoxVolume = cat.BoxVolume
		}
		item.FOB = cat.FOB
		item.PlatformPrice = cat.PlatformPrice
		item.LastImport = cat.LastImportDate
		item.ImportClass = cat.ImportClass
		item.LastReceipt = cat.LastReceiptDate
		item.ReceiptClass = cat.ReceiptClass
		item.DaysSinceImport = DaysSince(ref, cat.LastImportDate, cat.DaysSinceImport)
		item.DaysSinceReceipt = DaysSince(ref, cat.LastReceiptDate, cat.DaysSinceReceipt)
	}

	item.Units = item.Cases.Mul(item.PackQty)
	item.TUPrice = models.NormalTUPrice(item.PlatformPrice)
	item.ValueFOB = positiveProduct(item.Units, item.FOB)
	item.ValuePlatform = positiveProduct(item.Units, item.PlatformPrice)
	item.ValueTU = positiveProduct(item.Units, item.TUPrice)
	item.Volume = item.Cases.Mul(item.BoxVolume)
	item.Risk = ClassifyStockRisk(item.ReceiptClass, item.ImportClass, item.DaysSinceReceipt, item.DaysSinceImport)
	item.Sales = sales[item.SKU]

	return item
}

// positiveProduct returns qty × price, or zero when price is not positive.
func positiveProduct(qty, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return qty.Mul(price)
}

// stockTotals accumulates the valuation of a group of inventory items.
type stockTotals struct {
	key           string
	skus          map[string]struct{}
	cases         decimal.Decimal
	units         decimal.Decimal
	valueFOB      decimal.Decimal
	valuePlatform decimal.Decimal
	valueTU       decimal.Decimal
	volume        decimal.Decimal
}

func (t *stockTotals) add(i *InventoryItem) {
	t.skus[i.SKU] = struct{}{}
	t.cases = t.cases.Add(i.Cases)
	t.units = t.units.Add(i.Units)
	t.valueFOB = t.valueFOB.Add(i.ValueFOB)
	t.valuePlatform = t.valuePlatform.Add(i.ValuePlatform)
	t.valueTU = t.valueTU.Add(i.ValueTU)
	t.volume = t.volume.Add(i.Volume)
}

// groupStock groups items by key in first-seen order.
func groupStock(items []*InventoryItem, key func(*InventoryItem) string) []*stockTotals {
	index := make(map[string]*stockTotals)
	var out []*stockTotals
	for _, i := range items {
		k := key(i)
		g, ok := index[k]
		if !ok {
			g = &stockTotals{key: k, skus: make(map[string]struct{})}
			index[k] = g
			out = append(out, g)
		}
		g.add(i)
	}
	return out
}

func sortByTUValue(groups []*stockTotals) {
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].valueTU.GreaterThan(groups[b].valueTU)
	})
}

var stockGroupColumns = []string{
	"Productos Únicos", "Stock Cajas", "Stock Unidades",
	"Valor FOB (USD)", "Valor Plataforma (USD)", "Valor TU (USD)", "Volumen Total (m³)",
}

func addStockGroups(sheet *workbook.Sheet, groups []*stockTotals) {
	for _, g := range groups {
		sheet.AddRow(g.key, len(g.skus), g.cases, g.units, g.valueFOB, g.valuePlatform, g.valueTU, g.volume)
	}
}

var inventoryColumns = []string{
	"SKU", "Código D365", "Nombre Producto", "Marca", "Categoría (2° Nivel)", "Categoría Última",
	"Stock Cajas", "Cantidad por Paquete", "Stock Unidades",
	"FOB Unitario", "Precio Plataforma Unitario", "Precio TU Unitario (Plataforma x1.25)",
	"Valor Stock FOB (USD)", "Valor Stock Plataforma (USD)", "Valor Stock TU (USD)",
	"Volumen Box", "Volumen Total (m³)",
	"Fecha Última Importación", "Días desde Importación", "Clasificación Importación",
	"Fecha Última Recepción", "Días desde Recepción", "Clasificación Recepción",
	"Clasificación Stock", "Riesgo", "Tipo Marca", "EAN",
	"Se Vendió", "Número de Clientes", "Número de Órdenes", "Cajas Vendidas", "Unidades Vendidas",
	"Precio Unitario Max", "Precio Unitario Min", "Precio Unitario Promedio",
	"Precio Caja Max", "Precio Caja Min", "Precio Caja Promedio",
	"Última Venta", "Días desde Última Venta", "Total Facturado (USD)",
}

func inventoryRow(i *InventoryItem, ref time.Time) []any {
	row := []any{
		i.SKU, i.ERPRef, i.Name, i.Brand, i.Category, i.LeafCategory,
		i.Cases, i.PackQty, i.Units,
		i.FOB, i.PlatformPrice, i.TUPrice,
		i.ValueFOB, i.ValuePlatform, i.ValueTU,
		i.BoxVolume, i.Volume,
		i.LastImport, i.DaysSinceImport, i.ImportClass,
		i.LastReceipt, i.DaysSinceReceipt, i.ReceiptClass,
		i.Risk.Label, string(i.Risk.Level), i.BrandType, i.EAN,
		i.Sold(),
	}
	s := i.Sales
	if s == nil {
		return append(row, 0, 0, decimal.Zero, decimal.Zero,
			decimal.Zero, decimal.Zero, decimal.Zero,
			decimal.Zero, decimal.Zero, decimal.Zero,
			nil, nil, decimal.Zero)
	}
	unitLo, unitHi := MinMax(s.UnitPrices)
	boxLo, boxHi := MinMax(s.BoxPrices)
	var daysSinceSale *int
	if !s.LastSale.IsZero() {
		d := parse.DaysBetween(s.LastSale, ref)
		daysSinceSale = &d
	}
	return append(row, len(s.Customers), len(s.Orders), s.Cases, s.Units,
		unitHi, unitLo, Mean(s.UnitPrices),
		boxHi, boxLo, Mean(s.BoxPrices),
		s.LastSale, daysSinceSale, s.RevenueWithTax)
}

type inventoryReport struct {
	logger *zap.Logger
}

// NewInventoryReport builds the stock valuation workbook.
func NewInventoryReport(logger *zap.Logger) ReportBuilder {
	return &inventoryReport{logger: logger.Named("inventory-report")}
}

func (r *inventoryReport) Report() string { return config.ReportInventory }

func (r *inventoryReport) Requires() []string {
	return []string{ArtifactEnriched, ArtifactCatalog, ArtifactStock}
}

func (r *inventoryReport) Build(data *ReportData) (*workbook.Workbook, error) {
	sales, _ := SalesBySKU(data.Lines)
	items := BuildInventory(data.Stock, data.Catalog, sales, data.ReferenceDate)
	book := workbook.New(InventoryWorkbookName, config.ReportInventory)

	addItems := func(sheet *workbook.Sheet, items []*InventoryItem) {
		for _, i := range items {
			sheet.AddRow(inventoryRow(i, data.ReferenceDate)...)
		}
	}

	addItems(book.AddSheet("00_Inventario_Completo", inventoryColumns...), items)

	byCategory := groupStock(items, func(i *InventoryItem) string { return i.Category })
	sortByTUValue(byCategory)
	addStockGroups(book.AddSheet("01_Por_Categoria", append([]string{"Categoría"}, stockGroupColumns...)...), byCategory)

	byBrand := groupStock(items, func(i *InventoryItem) string { return i.Brand })
	sortByTUValue(byBrand)
	addStockGroups(book.AddSheet("02_Por_Marca", append([]string{"Marca"}, stockGroupColumns...)...), byBrand)

	byRisk := groupStock(items, func(i *InventoryItem) string { return string(i.Risk.Level) })
	sort.SliceStable(byRisk, func(a, b int) bool { return byRisk[a].key < byRisk[b].key })
	addStockGroups(book.AddSheet("03_Por_Riesgo", append([]string{"Riesgo"}, stockGroupColumns...)...), byRisk)

	bySold := groupStock(items, func(i *InventoryItem) string { return workbook.YesNo(i.Sold()) })
	sort.SliceStable(bySold, func(a, b int) bool { return bySold[a].key < bySold[b].key })
	addStockGroups(book.AddSheet("04_Vendido_vs_No_Vendido", append([]string{"Se Vendió"}, stockGroupColumns...)...), bySold)

	var unsold, highRisk, sold []*InventoryItem
	for _, i := range items {
		if !i.Sold() {
			unsold = append(unsold, i)
		} else {
			sold = append(sold, i)
		}
		if i.Risk.Level == models.RiskHigh {
			highRisk = append(highRisk, i)
		}
	}
	addItems(book.AddSheet("05_Productos_Sin_Ventas", inventoryColumns...), unsold)
	addItems(book.AddSheet("06_Top50_Valor_TU", inventoryColumns...), topN(items, 50))

	all := &stockTotals{skus: make(map[string]struct{})}
	for _, i := range items {
		all.add(i)
	}
	valuation := book.AddSheet("07_Resumen_Valorizacion",
		"Valuación", "Valor Total (USD)", "Stock Total Cajas", "Stock Total Unidades", "Volumen Total (m³)")
	valuation.AddRow("FOB", all.valueFOB, all.cases, all.units, all.volume)
	valuation.AddRow("Plataforma CEG", all.valuePlatform, all.cases, all.units, all.volume)
	valuation.AddRow("TU (Plataforma x1.25)", all.valueTU, all.cases, all.units, all.volume)

	volume := book.AddSheet("08_Volumen", "Categoría", "Volumen Total (m³)", "Stock Cajas", "Productos Únicos")
	sort.SliceStable(byCategory, func(a, b int) bool { return byCategory[a].volume.GreaterThan(byCategory[b].volume) })
	for _, g := range byCategory {
		volume.AddRow(g.key, g.volume, g.cases, len(g.skus))
	}

	addItems(book.AddSheet("09_Alto_Riesgo", inventoryColumns...), highRisk)

	sort.SliceStable(sold, func(a, b int) bool { return sold[a].Rotation().GreaterThan(sold[b].Rotation()) })
	rotation := book.AddSheet("10_Rotacion", append(append([]string{}, inventoryColumns...), "Rotación")...)
	for _, i := range sold {
		rotation.AddRow(append(inventoryRow(i, data.ReferenceDate), i.Rotation())...)
	}

	r.logger.Info("Built inventory workbook",
		zap.Int("items", len(items)),
		zap.Int("unsold", len(unsold)),
		zap.Int("high_risk", len(highRisk)))

	return book, nil
}
