package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ─── GetByID ──────────────────────────────────────────────────────────────────

func TestPurchaseOrderRepo_GetByID_ConLineas(t *testing.T) {
	mock := setupMock(t)
	repo := NewPurchaseOrderRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM purchase_orders WHERE id").
		WithArgs("po-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "dealer_id", "number", "status", "created_at", "updated_at"}).
			AddRow("po-1", "dealer-1", "OC-001", "partial", testNow, testNow))
	mock.ExpectQuery("SELECT .+ FROM purchase_order_lines WHERE purchase_order_id").
		WithArgs("po-1").
		WillReturnRows(pgxmock.NewRows(poLineCols).
			AddRow("pol-1", "po-1", "prod-1", "var-1", "10", "10", "7").
			AddRow("pol-2", "po-1", "prod-2", "var-2", "5", "2", "3"))

	po, err := repo.GetByID(context.Background(), "po-1")
	require.NoError(t, err)
	require.Len(t, po.Lines, 2)
	assert.Equal(t, "OC-001", po.Number)
	assert.True(t, po.Lines[1].Pending().Equal(decimal.NewFromInt(3)))
	assert.Equal(t, entity.PurchaseOrderPartial, entity.DeriveStatus(po.Lines))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseOrderRepo_GetByID_NoExiste(t *testing.T) {
	mock := setupMock(t)
	repo := NewPurchaseOrderRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM purchase_orders WHERE id").
		WithArgs("po-x").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "po-x")
	assert.ErrorIs(t, err, domain.ErrPurchaseOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseOrderRepo_GetLineForUpdate_NoExiste(t *testing.T) {
	mock := setupMock(t)
	repo := NewPurchaseOrderRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM purchase_order_lines WHERE purchase_order_id = \\$1 AND id = \\$2 FOR UPDATE").
		WithArgs("po-1", "pol-x").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetLineForUpdate(context.Background(), "po-1", "pol-x")
	assert.ErrorIs(t, err, domain.ErrPurchaseOrderLineNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── IncrementReceived / UpdateStatus ─────────────────────────────────────────

func TestPurchaseOrderRepo_IncrementReceived(t *testing.T) {
	mock := setupMock(t)
	repo := NewPurchaseOrderRepository(mock)

	mock.ExpectExec("UPDATE purchase_order_lines SET received_quantity").
		WithArgs("pol-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.IncrementReceived(context.Background(), "pol-1", decimal.NewFromInt(4)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseOrderRepo_IncrementReceived_SobreRecepcion(t *testing.T) {
	mock := setupMock(t)
	repo := NewPurchaseOrderRepository(mock)

	mock.ExpectExec("UPDATE purchase_order_lines SET received_quantity").
		WithArgs("pol-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.IncrementReceived(context.Background(), "pol-1", decimal.NewFromInt(40))
	assert.ErrorIs(t, err, domain.ErrOverReceipt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseOrderRepo_UpdateStatus(t *testing.T) {
	mock := setupMock(t)
	repo := NewPurchaseOrderRepository(mock)

	mock.ExpectExec("UPDATE purchase_orders SET status").
		WithArgs("po-1", entity.PurchaseOrderReceived).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "po-1", entity.PurchaseOrderReceived))
	assert.NoError(t, mock.ExpectationsWereMet())
}
