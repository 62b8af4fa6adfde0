// Package pdf genera la versión imprimible del stock por tienda.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + Tienda     │  Fecha de generación         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Ref. | Tienda | Cant. | P.Unit | Valor    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Unidades / Valor del stock / Productos en alerta   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
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

	"github.com/jhoicas/multitienda-api/internal/application/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 190, Green: 30, Blue: 45}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.StockReportGenerator = (*StockReportGenerator)(nil)

// StockReportGenerator implementa inventory.StockReportGenerator usando Maroto v2.
type StockReportGenerator struct {
	author string
}

// NewStockReportGenerator construye el generador; author se escribe en los metadatos del PDF.
func NewStockReportGenerator(author string) *StockReportGenerator {
	return &StockReportGenerator{author: author}
}

// GenerateStockReport genera el PDF y devuelve sus bytes.
func (g *StockReportGenerator) GenerateStockReport(_ context.Context, report *inventory.StockReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(report.Title, true).
		WithAuthor(g.author, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(report.Lines) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin stock registrado.", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}
	for _, r := range tableRows(report.Lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report *inventory.StockReport) core.Row {
	scope := "Todas las tiendas"
	if report.StoreName != "" {
		scope = "Tienda: " + report.StoreName
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New(report.Title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(scope, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Generado: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 4, align.Left),
		h("Ref.", 2, align.Left),
		h("Tienda", 2, align.Left),
		h("Cant.", 1, align.Center),
		h("P. Unit.", 1, align.Right),
		h("Valor", 2, align.Right),
	)
}

// tableRows: una fila por stock; las que están en alerta van en rojo.
func tableRows(lines []inventory.StockReportLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		var color *props.Color
		style := fontstyle.Normal
		if l.LowStock {
			color, style = colorAlert, fontstyle.Bold
		}
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{
				Size: 8, Align: a, Top: 1, Left: 1, Right: 1, Color: color, Style: style,
			}))
		}
		result = append(result, row.New(7).Add(
			cell(l.ProductName, 4, align.Left),
			cell(nonEmpty(l.Reference, "—"), 2, align.Left),
			cell(l.StoreID, 2, align.Left),
			cell(formatThousands(strconv.FormatInt(l.Quantity, 10)), 1, align.Center),
			cell("$"+formatMoney(l.UnitPrice), 1, align.Right),
			cell("$"+formatMoney(l.Value), 2, align.Right),
		))
	}
	return result
}

func totalsRow(report *inventory.StockReport) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	alerts := text.New(strconv.Itoa(report.LowCount), props.Text{
		Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Color: colorAlert,
	})

	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Unidades:"),
			label("Valor del stock:"),
			label("En alerta:"),
		),
		col.New(3).Add(
			value(formatThousands(strconv.FormatInt(report.TotalUnits, 10))),
			value("$"+formatMoney(report.TotalValue)),
			alerts,
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney dos decimales, puntos de miles y coma decimal. Ej: 1234.5 → "1.234,50".
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	return formatThousands(intPart) + "," + frac
}

// formatThousands inserta puntos de miles en un entero. Ej: "1000000" → "1.000.000".
func formatThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
