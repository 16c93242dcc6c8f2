package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.VariantRepository = (*VariantRepo)(nil)

const variantColumns = `id, dealer_id, product_id, sku, name, category, retail_price, stock_quantity, version, created_at, updated_at`

// VariantRepo implementación de VariantRepository sobre PostgreSQL (usable con pool o tx).
type VariantRepo struct {
	q Querier
}

// NewVariantRepository construye el adaptador de variantes. Pasar pool o tx (Querier).
func NewVariantRepository(q Querier) *VariantRepo {
	return &VariantRepo{q: q}
}

func scanVariant(row pgx.Row) (*entity.ProductVariant, error) {
	var v entity.ProductVariant
	err := row.Scan(&v.ID, &v.DealerID, &v.ProductID, &v.SKU, &v.Name, &v.Category,
		&v.RetailPrice, &v.StockQuantity, &v.Version, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserta la variante (catálogo externo; usado por carga inicial y tests).
func (r *VariantRepo) Create(ctx context.Context, v *entity.ProductVariant) error {
	query := `
		INSERT INTO product_variants (id, dealer_id, product_id, sku, name, category, retail_price, stock_quantity, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, now(), now())`
	_, err := r.q.Exec(ctx, query, v.ID, v.DealerID, v.ProductID, v.SKU, v.Name, v.Category, v.RetailPrice, v.StockQuantity)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("variante %s: %w", v.ID, domain.ErrInvalidInput)
		}
		return fmt.Errorf("create variant: %w", err)
	}
	return nil
}

// GetByID obtiene la variante sin bloquear.
func (r *VariantRepo) GetByID(ctx context.Context, id string) (*entity.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1`
	v, err := scanVariant(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, noRows(err, domain.ErrVariantNotFound, "get variant")
	}
	return v, nil
}

// GetForUpdate obtiene la variante y bloquea la fila (SELECT FOR UPDATE).
func (r *VariantRepo) GetForUpdate(ctx context.Context, id string) (*entity.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1 FOR UPDATE`
	v, err := scanVariant(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, noRows(err, domain.ErrVariantNotFound, "get variant for update")
	}
	return v, nil
}

// ApplyStockDelta suma delta al agregado con guarda de versión; sin filas afectadas hay conflicto.
func (r *VariantRepo) ApplyStockDelta(ctx context.Context, id string, delta decimal.Decimal, expectedVersion int64) (*entity.ProductVariant, error) {
	query := `
		UPDATE product_variants
		SET stock_quantity = stock_quantity + $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3
		RETURNING ` + variantColumns
	v, err := scanVariant(r.q.QueryRow(ctx, query, id, delta, expectedVersion))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("variante %s versión %d: %w", id, expectedVersion, domain.ErrConcurrentModification)
		}
		if isCheckViolation(err) {
			return nil, fmt.Errorf("variante %s: %w", id, domain.ErrInsufficientStock)
		}
		return nil, fmt.Errorf("apply stock delta: %w", asConflict(err))
	}
	return v, nil
}

// ListByDealer variantes del dealer ordenadas por SKU.
func (r *VariantRepo) ListByDealer(ctx context.Context, dealerID string) ([]*entity.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE dealer_id = $1 ORDER BY sku`
	rows, err := r.q.Query(ctx, query, dealerID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductVariant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
