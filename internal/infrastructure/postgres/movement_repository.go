package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, dealer_id, product_id, variant_id, batch_id, movement_type, quantity_before, quantity_change,
	quantity_after, reference_type, reference_id, reference_number, unit_cost, total_value, performed_by,
	movement_date, reason, created_at`

// MovementRepo log append-only de movimientos sobre PostgreSQL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador de movimientos. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m                entity.Movement
		typ, refType     string
		refNumber, notes *string
	)
	err := row.Scan(&m.ID, &m.DealerID, &m.ProductID, &m.VariantID, &m.BatchID, &typ,
		&m.QuantityBefore, &m.QuantityChange, &m.QuantityAfter, &refType, &m.ReferenceID, &refNumber,
		&m.UnitCost, &m.TotalValue, &m.PerformedBy, &m.MovementDate, &notes, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.ReferenceType = entity.ReferenceType(refType)
	if refNumber != nil {
		m.ReferenceNumber = *refNumber
	}
	if notes != nil {
		m.Reason = *notes
	}
	return &m, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", asConflict(err))
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Create inserta el movimiento. La violación del índice de idempotencia
// (batch_id, reference_type, reference_id, movement_type) es una carrera con otra tx: se reporta como conflicto.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.DealerID, m.ProductID, m.VariantID, m.BatchID, string(m.Type),
		m.QuantityBefore, m.QuantityChange, m.QuantityAfter, string(m.ReferenceType), m.ReferenceID, nullable(m.ReferenceNumber),
		m.UnitCost, m.TotalValue, m.PerformedBy, m.MovementDate, nullable(m.Reason), m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("movimiento duplicado %s/%s: %w", m.ReferenceType, m.ReferenceID, domain.ErrConcurrentModification)
		}
		return fmt.Errorf("create movement: %w", asConflict(err))
	}
	return nil
}

// GetByID obtiene un movimiento.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, noRows(err, domain.ErrNotFound, "get movement")
	}
	return m, nil
}

// FindByReference movimiento previo de (lote, referencia, tipo) o nil.
func (r *MovementRepo) FindByReference(ctx context.Context, batchID string, refType entity.ReferenceType, refID string, typ entity.MovementType) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE batch_id = $1 AND reference_type = $2 AND reference_id = $3 AND movement_type = $4`
	m, err := scanMovement(r.q.QueryRow(ctx, query, batchID, string(refType), refID, string(typ)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find movement by reference: %w", asConflict(err))
	}
	return m, nil
}

// ListByReference movimientos de una referencia de negocio en orden de registro.
func (r *MovementRepo) ListByReference(ctx context.Context, dealerID string, refType entity.ReferenceType, refID string, typ entity.MovementType) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE dealer_id = $1 AND reference_type = $2 AND reference_id = $3 AND movement_type = $4
		ORDER BY created_at, id`
	return r.list(ctx, query, dealerID, string(refType), refID, string(typ))
}

// List log filtrado, más reciente primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	add("dealer_id = $%d", f.DealerID)
	if f.VariantID != "" {
		add("variant_id = $%d", f.VariantID)
	}
	if f.BatchID != "" {
		add("batch_id = $%d", f.BatchID)
	}
	if f.ReferenceType != "" {
		add("reference_type = $%d", string(f.ReferenceType))
	}
	if f.ReferenceID != "" {
		add("reference_id = $%d", f.ReferenceID)
	}
	if f.Type != "" {
		add("movement_type = $%d", string(f.Type))
	}
	if f.From != nil {
		add("movement_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("movement_date < $%d", *f.To)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(` ORDER BY movement_date DESC, created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return r.list(ctx, query, args...)
}
