package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"25000", "25.000"},
		{"1000000.50", "1.000.000,50"},
		{"-1234.5", "-1.234,5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNumber(tt.in))
		})
	}
}

func TestGenerateInventoryReportPDF(t *testing.T) {
	report := &dto.InventoryReport{
		Valuation: &dto.ValuationReport{
			DealerID:    "dealer-1",
			TotalUnits:  decimal.NewFromInt(10),
			TotalCost:   decimal.NewFromInt(70),
			TotalRetail: decimal.NewFromInt(200),
			ByCategory: []dto.CategoryValuationDTO{
				{Category: "lubricantes", Units: decimal.NewFromInt(10), Cost: decimal.NewFromInt(70), Retail: decimal.NewFromInt(200)},
			},
			GeneratedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		},
		SalesSeries: []dto.DailySalesPoint{
			{Date: "2026-03-09", Units: decimal.Zero, Amount: decimal.Zero, Cost: decimal.Zero},
			{Date: "2026-03-10", Units: decimal.NewFromInt(2), Amount: decimal.NewFromInt(40), Cost: decimal.NewFromInt(14)},
		},
		MovementSummary: []dto.MovementSummaryRow{
			{MovementType: "out", ReferenceType: "sale", Count: 1, Units: decimal.NewFromInt(2), Value: decimal.NewFromInt(14)},
		},
	}

	out, err := NewMarotoReportGenerator().GenerateInventoryReportPDF(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateInventoryReportPDF_SinValoracion(t *testing.T) {
	_, err := NewMarotoReportGenerator().GenerateInventoryReportPDF(context.Background(), &dto.InventoryReport{})
	assert.Error(t, err)
}
