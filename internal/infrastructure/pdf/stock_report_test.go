package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/multitienda-api/internal/application/inventory"
)

func TestGenerateStockReport_ProducesPDF(t *testing.T) {
	report := &inventory.StockReport{
		Title:       "Reporte de stock",
		StoreName:   "Centro",
		GeneratedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Lines: []inventory.StockReportLine{
			{ProductName: "Arroz", Reference: "ARZ", StoreID: "s1", Quantity: 3, UnitPrice: decimal.NewFromInt(2), Value: decimal.NewFromInt(6), LowStock: true},
			{ProductName: "Aceite", StoreID: "s1", Quantity: 1200, UnitPrice: decimal.RequireFromString("4.5"), Value: decimal.NewFromInt(5400)},
		},
		TotalUnits: 1203,
		TotalValue: decimal.NewFromInt(5406),
		LowCount:   1,
	}

	out, err := NewStockReportGenerator("multitienda-api").GenerateStockReport(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateStockReport_Empty(t *testing.T) {
	out, err := NewStockReportGenerator("").GenerateStockReport(context.Background(), &inventory.StockReport{
		Title:      "Reporte de stock",
		TotalValue: decimal.Zero,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":       "0,00",
		"2.5":     "2,50",
		"1234.5":  "1.234,50",
		"1000000": "1.000.000,00",
		"999.999": "1.000,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
	assert.Equal(t, "-12.345", formatThousands("-12345"))
}
