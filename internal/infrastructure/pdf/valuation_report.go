// Package pdf genera la versión imprimible del reporte de inventario de un dealer.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Dealer + período      │  Fecha de generación       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VALORACIÓN: Categoría | Unidades | Costo | Precio venta    │
//	│  TOTALES: unidades / costo / precio de venta                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MOVIMIENTOS: Tipo | Referencia | Cant. | Unidades | Valor  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VENTAS DIARIAS: Fecha | Unidades | Venta | Costo           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator genera el reporte de inventario con Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateInventoryReportPDF genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateInventoryReportPDF(_ context.Context, report *dto.InventoryReport) ([]byte, error) {
	if report == nil || report.Valuation == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Valoración de inventario", true).
		WithAuthor(report.Valuation.DealerID, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionTitle("VALORACIÓN POR CATEGORÍA"))
	m.AddRows(tableHeader([]string{"Categoría", "Unidades", "Costo", "Precio venta"}, []int{6, 2, 2, 2}))
	for _, c := range report.Valuation.ByCategory {
		m.AddRows(tableRow([]string{c.Category, qty(c.Units), money(c.Cost), money(c.Retail)}, []int{6, 2, 2, 2}, false))
	}
	v := report.Valuation
	m.AddRows(tableRow([]string{"TOTAL", qty(v.TotalUnits), money(v.TotalCost), money(v.TotalRetail)}, []int{6, 2, 2, 2}, true))

	if len(report.MovementSummary) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle("MOVIMIENTOS DEL PERÍODO"))
		widths := []int{3, 3, 2, 2, 2}
		m.AddRows(tableHeader([]string{"Tipo", "Referencia", "Cantidad", "Unidades", "Valor"}, widths))
		for _, s := range report.MovementSummary {
			m.AddRows(tableRow([]string{s.MovementType, s.ReferenceType, fmt.Sprint(s.Count), qty(s.Units), money(s.Value)}, widths, false))
		}
	}

	if len(report.SalesSeries) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle("VENTAS DIARIAS"))
		widths := []int{3, 3, 3, 3}
		m.AddRows(tableHeader([]string{"Fecha", "Unidades", "Venta", "Costo"}, widths))
		for _, p := range report.SalesSeries {
			if p.Units.IsZero() && p.Amount.IsZero() {
				continue
			}
			m.AddRows(tableRow([]string{p.Date, qty(p.Units), money(p.Amount), money(p.Cost)}, widths, false))
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report *dto.InventoryReport) core.Row {
	period := "Valoración a la fecha"
	if n := len(report.SalesSeries); n > 0 {
		period = fmt.Sprintf("Período %s a %s", report.SalesSeries[0].Date, report.SalesSeries[n-1].Date)
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New("Dealer "+report.Valuation.DealerID, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(period, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("REPORTE DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+report.Valuation.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func sectionTitle(s string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2}),
	))
}

func tableHeader(labels []string, widths []int) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		a := align.Right
		if i == 0 {
			a = align.Left
		}
		cols = append(cols, col.New(widths[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

func tableRow(values []string, widths []int, bold bool) core.Row {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	cols := make([]core.Col, 0, len(values))
	for i, v := range values {
		a := align.Right
		if i == 0 {
			a = align.Left
		}
		cols = append(cols, col.New(widths[i]).Add(text.New(v, props.Text{
			Style: style, Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func qty(d decimal.Decimal) string {
	return formatNumber(d.String())
}

func money(d decimal.Decimal) string {
	return "$" + formatNumber(d.StringFixed(2))
}

// formatNumber separa miles con punto y decimales con coma.
// Ej: "25000.50" → "25.000,50", "-1000" → "-1.000"
func formatNumber(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+len(frac)+1)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	if hasFrac {
		buf = append(buf, ',')
		buf = append(buf, frac...)
	}
	return sign + string(buf)
}
