package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/pkg/database"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func setupMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string { return &s }

func pgErr(code string) error { return &pgconn.PgError{Code: code, Message: "simulated"} }

// anyArgs n comodines para los INSERT de muchas columnas.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

var variantCols = []string{
	"id", "dealer_id", "product_id", "sku", "name", "category",
	"retail_price", "stock_quantity", "version", "created_at", "updated_at",
}

var batchCols = []string{
	"id", "dealer_id", "product_id", "variant_id", "batch_number", "initial_quantity", "current_quantity",
	"unit_cost_price", "received_date", "source_type", "source_reference", "created_at", "updated_at",
}

var movementCols = []string{
	"id", "dealer_id", "product_id", "variant_id", "batch_id", "movement_type", "quantity_before", "quantity_change",
	"quantity_after", "reference_type", "reference_id", "reference_number", "unit_cost", "total_value", "performed_by",
	"movement_date", "reason", "created_at",
}

var poLineCols = []string{
	"id", "purchase_order_id", "product_id", "variant_id", "ordered_quantity", "received_quantity", "unit_cost",
}

// Los decimales viajan como texto: decimal.Decimal los lee vía sql.Scanner.
func variantRow(id string, stock string, version int64) *pgxmock.Rows {
	return pgxmock.NewRows(variantCols).AddRow(
		id, "dealer-1", "prod-1", "SKU-"+id, "Aceite 5W30", "lubricantes",
		"20", stock, version, testNow, testNow)
}

func batchRow(id, number, current string) []any {
	return []any{
		id, "dealer-1", "prod-1", "var-1", number, "10", current,
		"7", testNow, "purchase_order", strPtr("po-1"), testNow, testNow,
	}
}

func movementRow(id, typ, refType, refID string) []any {
	return []any{
		id, "dealer-1", "prod-1", "var-1", strPtr("batch-1"), typ, "10", "3",
		"7", refType, refID, strPtr("V-001"), "7", "21", "user-1",
		testNow, nil, testNow,
	}
}
