package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ─── GetByID / GetForUpdate ───────────────────────────────────────────────────

func TestVariantRepo_GetByID_Existente(t *testing.T) {
	mock := setupMock(t)
	repo := NewVariantRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM product_variants WHERE id = \\$1$").
		WithArgs("var-1").
		WillReturnRows(variantRow("var-1", "12", 4))

	v, err := repo.GetByID(context.Background(), "var-1")
	require.NoError(t, err)
	assert.Equal(t, "var-1", v.ID)
	assert.True(t, v.StockQuantity.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, int64(4), v.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariantRepo_GetForUpdate_NoExiste(t *testing.T) {
	mock := setupMock(t)
	repo := NewVariantRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM product_variants WHERE id = \\$1 FOR UPDATE").
		WithArgs("var-x").
		WillReturnError(pgx.ErrNoRows)

	v, err := repo.GetForUpdate(context.Background(), "var-x")
	assert.Nil(t, v)
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariantRepo_GetForUpdate_LockTimeoutEsConflicto(t *testing.T) {
	mock := setupMock(t)
	repo := NewVariantRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM product_variants WHERE id = \\$1 FOR UPDATE").
		WithArgs("var-1").
		WillReturnError(pgErr(codeLockNotAvailable))

	_, err := repo.GetForUpdate(context.Background(), "var-1")
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── ApplyStockDelta ──────────────────────────────────────────────────────────

func TestVariantRepo_ApplyStockDelta_IncrementaVersion(t *testing.T) {
	mock := setupMock(t)
	repo := NewVariantRepository(mock)

	mock.ExpectQuery("UPDATE product_variants").
		WithArgs("var-1", pgxmock.AnyArg(), int64(4)).
		WillReturnRows(variantRow("var-1", "9", 5))

	v, err := repo.ApplyStockDelta(context.Background(), "var-1", decimal.NewFromInt(-3), 4)
	require.NoError(t, err)
	assert.True(t, v.StockQuantity.Equal(decimal.NewFromInt(9)))
	assert.Equal(t, int64(5), v.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariantRepo_ApplyStockDelta_VersionDistintaEsConflicto(t *testing.T) {
	mock := setupMock(t)
	repo := NewVariantRepository(mock)

	mock.ExpectQuery("UPDATE product_variants").
		WithArgs("var-1", pgxmock.AnyArg(), int64(4)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.ApplyStockDelta(context.Background(), "var-1", decimal.NewFromInt(2), 4)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariantRepo_ApplyStockDelta_CheckNegativoEsStockInsuficiente(t *testing.T) {
	mock := setupMock(t)
	repo := NewVariantRepository(mock)

	mock.ExpectQuery("UPDATE product_variants").
		WithArgs("var-1", pgxmock.AnyArg(), int64(1)).
		WillReturnError(pgErr(codeCheckViolation))

	_, err := repo.ApplyStockDelta(context.Background(), "var-1", decimal.NewFromInt(-50), 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── Create / ListByDealer ────────────────────────────────────────────────────

func TestVariantRepo_Create(t *testing.T) {
	mock := setupMock(t)
	repo := NewVariantRepository(mock)

	v := &entity.ProductVariant{ID: "var-1", DealerID: "dealer-1", ProductID: "prod-1", SKU: "SKU-1", Name: "Filtro", Category: "filtros"}
	mock.ExpectExec("INSERT INTO product_variants").
		WithArgs(v.ID, v.DealerID, v.ProductID, v.SKU, v.Name, v.Category, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), v))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVariantRepo_ListByDealer_ErrorDeConsulta(t *testing.T) {
	mock := setupMock(t)
	repo := NewVariantRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM product_variants WHERE dealer_id").
		WithArgs("dealer-1").
		WillReturnError(errors.New("connection refused"))

	list, err := repo.ListByDealer(context.Background(), "dealer-1")
	assert.Nil(t, list)
	assert.ErrorContains(t, err, "list variants")
	assert.NoError(t, mock.ExpectationsWereMet())
}
