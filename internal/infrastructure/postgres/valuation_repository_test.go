package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func TestValuationRepo_ValuationByCategory(t *testing.T) {
	mock := setupMock(t)
	repo := NewValuationRepository(mock)

	mock.ExpectQuery("FROM inventory_batches b\\s+JOIN product_variants v").
		WithArgs("dealer-1").
		WillReturnRows(pgxmock.NewRows([]string{"category", "units", "cost", "retail"}).
			AddRow("filtros", "4", "12", "40").
			AddRow("lubricantes", "10", "70", "200"))

	list, err := repo.ValuationByCategory(context.Background(), "dealer-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "lubricantes", list[1].Category)
	assert.True(t, list[1].Cost.Equal(decimal.NewFromInt(70)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValuationRepo_DailySales_FechasEnUTC(t *testing.T) {
	mock := setupMock(t)
	repo := NewValuationRepository(mock)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.FixedZone("COT", -5*3600))

	mock.ExpectQuery("WHERE m.dealer_id = \\$1 AND m.reference_type = 'sale'").
		WithArgs("dealer-1", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"day", "units", "amount", "cost"}).
			AddRow(day, "3", "60", "21"))

	list, err := repo.DailySales(context.Background(), "dealer-1", from, to)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, time.UTC, list[0].Date.Location())
	assert.True(t, list[0].Units.Equal(decimal.NewFromInt(3)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValuationRepo_MovementSummary(t *testing.T) {
	mock := setupMock(t)
	repo := NewValuationRepository(mock)
	from, to := testNow.AddDate(0, 0, -1), testNow

	mock.ExpectQuery("GROUP BY movement_type, reference_type").
		WithArgs("dealer-1", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"movement_type", "reference_type", "count", "units", "value"}).
			AddRow("in", "purchase_order", 2, "15", "105").
			AddRow("out", "sale", 3, "7", "49"))

	list, err := repo.MovementSummary(context.Background(), "dealer-1", from, to)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.MovementTypeOut, list[1].Type)
	assert.Equal(t, entity.ReferenceSale, list[1].ReferenceType)
	assert.Equal(t, 3, list[1].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValuationRepo_ConservationDrift(t *testing.T) {
	mock := setupMock(t)
	repo := NewValuationRepository(mock)

	mock.ExpectQuery("HAVING v.stock_quantity <>").
		WithArgs("dealer-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "stock_quantity", "batch_total"}).
			AddRow("var-1", "10", "8"))

	list, err := repo.ConservationDrift(context.Background(), "dealer-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].BatchTotal.Equal(decimal.NewFromInt(8)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
