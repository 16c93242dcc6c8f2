package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `id, dealer_id, product_id, variant_id, batch_number, initial_quantity, current_quantity,
	unit_cost_price, received_date, source_type, source_reference, created_at, updated_at`

// fifoOrder orden de consumo: recepción, creación y número de lote.
const fifoOrder = `ORDER BY received_date, created_at, batch_number`

// BatchRepo implementación de BatchRepository sobre PostgreSQL.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

func scanBatch(row pgx.Row) (*entity.InventoryBatch, error) {
	var (
		b      entity.InventoryBatch
		source string
	)
	err := row.Scan(&b.ID, &b.DealerID, &b.ProductID, &b.VariantID, &b.BatchNumber,
		&b.InitialQuantity, &b.CurrentQuantity, &b.UnitCostPrice, &b.ReceivedDate,
		&source, &b.SourceReference, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.SourceType = entity.BatchSource(source)
	return &b, nil
}

func (r *BatchRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.InventoryBatch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, asConflict(err))
	}
	defer rows.Close()
	var list []*entity.InventoryBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Create inserta el lote. batch_number es único por (dealer, variante).
func (r *BatchRepo) Create(ctx context.Context, b *entity.InventoryBatch) error {
	query := `
		INSERT INTO inventory_batches (id, dealer_id, product_id, variant_id, batch_number, initial_quantity, current_quantity,
			unit_cost_price, received_date, source_type, source_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.DealerID, b.ProductID, b.VariantID, b.BatchNumber, b.InitialQuantity, b.CurrentQuantity,
		b.UnitCostPrice, b.ReceivedDate, string(b.SourceType), b.SourceReference, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s: %w", b.BatchNumber, domain.ErrDuplicateBatchLabel)
		}
		return fmt.Errorf("create batch: %w", asConflict(err))
	}
	return nil
}

// GetByID obtiene el lote sin bloquear.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM inventory_batches WHERE id = $1`
	b, err := scanBatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, noRows(err, domain.ErrBatchNotFound, "get batch")
	}
	return b, nil
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM inventory_batches WHERE id = $1 FOR UPDATE`
	b, err := scanBatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, noRows(err, domain.ErrBatchNotFound, "get batch for update")
	}
	return b, nil
}

// ExistsBatchNumber indica si la etiqueta ya está usada para la variante del dealer.
func (r *BatchRepo) ExistsBatchNumber(ctx context.Context, dealerID, variantID, batchNumber string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM inventory_batches WHERE dealer_id = $1 AND variant_id = $2 AND batch_number = $3)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, dealerID, variantID, batchNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists batch number: %w", asConflict(err))
	}
	return exists, nil
}

// GetByNumber obtiene el lote por su etiqueta dentro de la variante del dealer.
func (r *BatchRepo) GetByNumber(ctx context.Context, dealerID, variantID, batchNumber string) (*entity.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM inventory_batches WHERE dealer_id = $1 AND variant_id = $2 AND batch_number = $3`
	b, err := scanBatch(r.q.QueryRow(ctx, query, dealerID, variantID, batchNumber))
	if err != nil {
		return nil, noRows(err, domain.ErrBatchNotFound, "get batch by number")
	}
	return b, nil
}

// UpdateCurrentQuantity fija la cantidad remanente (la fila ya está bloqueada por la tx).
func (r *BatchRepo) UpdateCurrentQuantity(ctx context.Context, id string, qty decimal.Decimal) error {
	query := `UPDATE inventory_batches SET current_quantity = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, qty)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("lote %s: %w", id, domain.ErrInsufficientStock)
		}
		return fmt.Errorf("update batch quantity: %w", asConflict(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBatchNotFound
	}
	return nil
}

// ListAvailableForUpdate lotes con stock de la variante en orden FIFO, bloqueados en ese orden.
func (r *BatchRepo) ListAvailableForUpdate(ctx context.Context, variantID string) ([]*entity.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM inventory_batches
		WHERE variant_id = $1 AND current_quantity > 0 ` + fifoOrder + ` FOR UPDATE`
	return r.list(ctx, "list available batches", query, variantID)
}

// ListByVariant todos los lotes (incluidos agotados) de la variante del dealer.
func (r *BatchRepo) ListByVariant(ctx context.Context, dealerID, variantID string) ([]*entity.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM inventory_batches
		WHERE dealer_id = $1 AND variant_id = $2 ` + fifoOrder
	return r.list(ctx, "list batches", query, dealerID, variantID)
}
