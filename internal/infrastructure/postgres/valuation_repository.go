package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.ValuationRepository = (*ValuationRepo)(nil)

// ValuationRepo consultas de reportes; sin bloqueos de fila.
type ValuationRepo struct {
	q Querier
}

// NewValuationRepository construye el adaptador de lectura.
func NewValuationRepository(q Querier) *ValuationRepo {
	return &ValuationRepo{q: q}
}

// ValuationByCategory valor del stock remanente agrupado por categoría de la variante.
func (r *ValuationRepo) ValuationByCategory(ctx context.Context, dealerID string) ([]repository.CategoryValuation, error) {
	query := `
		SELECT v.category,
		       COALESCE(SUM(b.current_quantity), 0),
		       COALESCE(SUM(b.current_quantity * b.unit_cost_price), 0),
		       COALESCE(SUM(b.current_quantity * v.retail_price), 0)
		FROM inventory_batches b
		JOIN product_variants v ON v.id = b.variant_id
		WHERE b.dealer_id = $1 AND b.current_quantity > 0
		GROUP BY v.category
		ORDER BY v.category`
	rows, err := r.q.Query(ctx, query, dealerID)
	if err != nil {
		return nil, fmt.Errorf("valuation by category: %w", err)
	}
	defer rows.Close()
	var list []repository.CategoryValuation
	for rows.Next() {
		var c repository.CategoryValuation
		if err := rows.Scan(&c.Category, &c.Units, &c.Cost, &c.Retail); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// DailySales salidas por venta menos reversas, por día UTC en [from, to).
func (r *ValuationRepo) DailySales(ctx context.Context, dealerID string, from, to time.Time) ([]repository.DailySales, error) {
	query := `
		SELECT date_trunc('day', m.movement_date AT TIME ZONE 'UTC') AS day,
		       SUM(CASE WHEN m.movement_type = 'out' THEN m.quantity_change ELSE -m.quantity_change END),
		       SUM(CASE WHEN m.movement_type = 'out' THEN m.quantity_change ELSE -m.quantity_change END * v.retail_price),
		       SUM(CASE WHEN m.movement_type = 'out' THEN m.total_value ELSE -m.total_value END)
		FROM inventory_movements m
		JOIN product_variants v ON v.id = m.variant_id
		WHERE m.dealer_id = $1 AND m.reference_type = 'sale'
		  AND m.movement_date >= $2 AND m.movement_date < $3
		GROUP BY day
		ORDER BY day`
	rows, err := r.q.Query(ctx, query, dealerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()
	var list []repository.DailySales
	for rows.Next() {
		var s repository.DailySales
		if err := rows.Scan(&s.Date, &s.Units, &s.Amount, &s.Cost); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		s.Date = s.Date.UTC()
		list = append(list, s)
	}
	return list, rows.Err()
}

// MovementSummary conteo, unidades y valor por tipo de movimiento y referencia en [from, to).
func (r *ValuationRepo) MovementSummary(ctx context.Context, dealerID string, from, to time.Time) ([]repository.MovementSummary, error) {
	query := `
		SELECT movement_type, reference_type, COUNT(*), COALESCE(SUM(quantity_change), 0), COALESCE(SUM(total_value), 0)
		FROM inventory_movements
		WHERE dealer_id = $1 AND movement_date >= $2 AND movement_date < $3
		GROUP BY movement_type, reference_type
		ORDER BY movement_type, reference_type`
	rows, err := r.q.Query(ctx, query, dealerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("movement summary: %w", err)
	}
	defer rows.Close()
	var list []repository.MovementSummary
	for rows.Next() {
		var (
			s            repository.MovementSummary
			typ, refType string
		)
		if err := rows.Scan(&typ, &refType, &s.Count, &s.Units, &s.Value); err != nil {
			return nil, fmt.Errorf("scan movement summary: %w", err)
		}
		s.Type, s.ReferenceType = entity.MovementType(typ), entity.ReferenceType(refType)
		list = append(list, s)
	}
	return list, rows.Err()
}

// ConservationDrift variantes cuyo agregado difiere de la suma de sus lotes.
func (r *ValuationRepo) ConservationDrift(ctx context.Context, dealerID string) ([]repository.VariantDrift, error) {
	query := `
		SELECT v.id, v.stock_quantity, COALESCE(SUM(b.current_quantity), 0) AS batch_total
		FROM product_variants v
		LEFT JOIN inventory_batches b ON b.variant_id = v.id
		WHERE v.dealer_id = $1
		GROUP BY v.id, v.stock_quantity
		HAVING v.stock_quantity <> COALESCE(SUM(b.current_quantity), 0)
		ORDER BY v.id`
	rows, err := r.q.Query(ctx, query, dealerID)
	if err != nil {
		return nil, fmt.Errorf("conservation drift: %w", err)
	}
	defer rows.Close()
	var list []repository.VariantDrift
	for rows.Next() {
		var d repository.VariantDrift
		if err := rows.Scan(&d.VariantID, &d.StockQuantity, &d.BatchTotal); err != nil {
			return nil, fmt.Errorf("scan drift: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
