package services

import (
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/workbook"
)

// EnrichedSalesName is the file name of the enriched sales CSV.
const EnrichedSalesName = "ventas_historicas_items_FINAL"

var enrichedColumns = []string{
	// Source export.
	"ID Orden", "Fecha Creación", "Estado",
	"Email Cliente", "Nombre Cliente", "Apellido Cliente", "CUIT Cliente",
	"SKU", "Nombre Producto", "Categoría (2° Nivel)",
	"Cantidad", "Cantidad Unitarias", "Precio Original", "Precio Venta", "Precio con IVA",
	"Descuento % Item", "Total Item", "Total Item con IVA", "Total Orden", "Volumen del Item",
	// Catalog.
	"tu_Referencia_ERP", "tu_Marca", "tu_Categoria", "tu_Unidades_por_Bulto",
	"tu_Fecha_Ultima_Importacion", "tu_Fecha_Ultima_Recepcion",
	// Price list.
	"ceg_Codigo", "ceg_Marca", "ceg_Categoria", "ceg_Precio_Base", "ceg_FOB",
	// Derived.
	"Marca", "Categoria",
	"Precio_Unitario_Original", "Precio_Unitario_Venta", "Precio_Unitario_con_IVA", "Unidades",
	"FOB_Utilizado", "Precio_Plataforma_Utilizado",
	"Margen_FOB_Unitario", "Margen_FOB_%", "Margen_Plataforma_Unitario", "Margen_Plataforma_%",
	"Compra_sobre_FOB_%", "Compra_sobre_Plataforma_%",
	"Descuento_Calculado_%", "Descuento_Efectivo_%",
	"Stock_Unidades", "Dias_Desde_Importacion", "Dias_Desde_Recepcion",
	"Riesgo_Stock", "Nivel_Riesgo",
}

type enrichedSalesReport struct {
	logger *zap.Logger
}

// NewEnrichedSalesReport writes every enriched line as one CSV.
func NewEnrichedSalesReport(logger *zap.Logger) ReportBuilder {
	return &enrichedSalesReport{logger: logger.Named("enriched-sales-report")}
}

func (r *enrichedSalesReport) Report() string { return config.ReportEnrichedSales }

func (r *enrichedSalesReport) Requires() []string { return []string{ArtifactEnriched} }

func (r *enrichedSalesReport) Build(data *ReportData) (*workbook.Workbook, error) {
	book := workbook.New(EnrichedSalesName, config.ReportEnrichedSales)
	book.CSVOnly = true

	sheet := book.AddSheet("ventas_enriquecidas", enrichedColumns...)
	for _, l := range data.Lines {
		sheet.AddRow(enrichedRow(l)...)
	}

	r.logger.Info("Built enriched sales", zap.Int("lines", len(sheet.Rows)))
	return book, nil
}

func enrichedRow(l *models.EnrichedLine) []any {
	row := []any{
		l.OrderID, l.OrderDate, l.Status,
		l.CustomerEmail, l.CustomerFirstName, l.CustomerLastName, l.CustomerTaxID,
		l.SKU, l.ProductName, l.SalesLineItem.Category,
		l.Cases, l.Units, l.OriginalPrice, l.SalePrice, l.PriceWithTax,
		l.DiscountPct, l.LineTotal, l.LineTotalWithTax, l.OrderTotal, l.Volume,
	}

	if c := l.Catalog; c != nil {
		var pack any
		if c.HasPackQty() {
			pack = c.PackQty
		}
		row = append(row, c.ERPRef, c.Brand, c.Category, pack, c.LastImportDate, c.LastReceiptDate)
	} else {
		row = append(row, nil, nil, nil, nil, nil, nil)
	}

	if p := l.CEG; p != nil {
		row = append(row, p.Code, p.BrandName, p.CategoryName, p.BasePrice, p.FOB)
	} else {
		row = append(row, nil, nil, nil, nil, nil)
	}

	var stock any
	if l.Stock != nil {
		stock = l.Stock.Units()
	}

	return append(row,
		l.Brand, l.Category,
		l.UnitOriginalPrice, l.UnitSalePrice, l.UnitPriceWithTax, l.UnitQuantity,
		l.FOB, l.PlatformPrice,
		l.MarginFOB, l.MarginFOBPct, l.MarginPlatform, l.MarginPlatformPct,
		l.PurchaseOverFOBPct, l.PurchaseOverPlatformPct,
		l.ComputedDiscountPct, l.EffectiveDiscountPct,
		stock, l.DaysSinceImport, l.DaysSinceReceipt,
		l.Risk.Label, string(l.Risk.Level),
	)
}
