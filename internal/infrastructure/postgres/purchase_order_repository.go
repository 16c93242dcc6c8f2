package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

const poLineColumns = `id, purchase_order_id, product_id, variant_id, ordered_quantity, received_quantity, unit_cost`

// PurchaseOrderRepo órdenes de compra sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create inserta la orden y sus líneas (la orden la crea el módulo de compras; aquí para carga y tests).
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	status := po.Status
	if status == "" {
		status = entity.PurchaseOrderPending
	}
	query := `
		INSERT INTO purchase_orders (id, dealer_id, number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())`
	if _, err := r.q.Exec(ctx, query, po.ID, po.DealerID, po.Number, status); err != nil {
		return fmt.Errorf("create purchase order: %w", err)
	}
	lineQuery := `
		INSERT INTO purchase_order_lines (` + poLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, l := range po.Lines {
		if _, err := r.q.Exec(ctx, lineQuery, l.ID, po.ID, l.ProductID, l.VariantID, l.OrderedQuantity, l.ReceivedQuantity, l.UnitCost); err != nil {
			return fmt.Errorf("create purchase order line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus líneas.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	query := `SELECT id, dealer_id, number, status, created_at, updated_at FROM purchase_orders WHERE id = $1`
	var po entity.PurchaseOrder
	err := r.q.QueryRow(ctx, query, id).Scan(&po.ID, &po.DealerID, &po.Number, &po.Status, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, noRows(err, domain.ErrPurchaseOrderNotFound, "get purchase order")
	}

	rows, err := r.q.Query(ctx, `SELECT `+poLineColumns+` FROM purchase_order_lines WHERE purchase_order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list purchase order lines: %w", asConflict(err))
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.VariantID, &l.OrderedQuantity, &l.ReceivedQuantity, &l.UnitCost); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		po.Lines = append(po.Lines, l)
	}
	return &po, rows.Err()
}

// GetLineForUpdate bloquea la línea de la orden (SELECT FOR UPDATE).
func (r *PurchaseOrderRepo) GetLineForUpdate(ctx context.Context, purchaseOrderID, lineID string) (*entity.PurchaseOrderLine, error) {
	query := `SELECT ` + poLineColumns + ` FROM purchase_order_lines WHERE purchase_order_id = $1 AND id = $2 FOR UPDATE`
	var l entity.PurchaseOrderLine
	err := r.q.QueryRow(ctx, query, purchaseOrderID, lineID).Scan(
		&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.VariantID, &l.OrderedQuantity, &l.ReceivedQuantity, &l.UnitCost)
	if err != nil {
		return nil, noRows(err, domain.ErrPurchaseOrderLineNotFound, "get purchase order line")
	}
	return &l, nil
}

// IncrementReceived suma qty a received_quantity sin superar ordered_quantity.
func (r *PurchaseOrderRepo) IncrementReceived(ctx context.Context, lineID string, qty decimal.Decimal) error {
	query := `
		UPDATE purchase_order_lines SET received_quantity = received_quantity + $2
		WHERE id = $1 AND received_quantity + $2 <= ordered_quantity`
	tag, err := r.q.Exec(ctx, query, lineID, qty)
	if err != nil {
		return fmt.Errorf("increment received: %w", asConflict(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOverReceipt
	}
	return nil
}

// UpdateStatus persiste el estado derivado de la orden.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx, `UPDATE purchase_orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update purchase order status: %w", asConflict(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPurchaseOrderNotFound
	}
	return nil
}
