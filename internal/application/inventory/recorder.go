package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

// Reference origen de negocio de un movimiento (clave de idempotencia junto con lote y tipo).
type Reference struct {
	Type   entity.ReferenceType
	ID     string
	Number string
}

// RecordInput entrada del MovementRecorder.
type RecordInput struct {
	DealerID  string
	BatchID   string
	VariantID string
	Type      entity.MovementType // in | out
	Magnitude decimal.Decimal     // siempre positiva
	Reference Reference
	UnitCost  *decimal.Decimal // por defecto el costo unitario del lote
	Reason    string
	Actor     string
	Date      time.Time // por defecto ahora
}

// MovementRecorder único punto de escritura de cantidades: lote, agregado de la variante y
// movimiento cambian juntos dentro de la transacción del caller.
type MovementRecorder struct {
	now func() time.Time
}

// NewMovementRecorder construye el recorder.
func NewMovementRecorder(now func() time.Time) *MovementRecorder {
	if now == nil {
		now = time.Now
	}
	return &MovementRecorder{now: now}
}

// Record aplica un movimiento in/out sobre un lote.
// Si ya existe un movimiento para (lote, referencia, tipo) lo devuelve sin escribir nada.
func (r *MovementRecorder) Record(ctx context.Context, repos Repos, in RecordInput) (*entity.Movement, error) {
	if !in.Magnitude.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.Type != entity.MovementTypeIn && in.Type != entity.MovementTypeOut {
		return nil, fmt.Errorf("tipo de movimiento %q: %w", in.Type, domain.ErrInvalidInput)
	}
	if in.BatchID == "" || in.VariantID == "" || in.Reference.ID == "" || !in.Reference.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}

	// Orden de bloqueo: variante y luego lote.
	variant, err := repos.Variants.GetForUpdate(ctx, in.VariantID)
	if err != nil {
		return nil, err
	}
	if in.DealerID != "" && variant.DealerID != in.DealerID {
		return nil, domain.ErrForbidden
	}

	prior, err := repos.Movements.FindByReference(ctx, in.BatchID, in.Reference.Type, in.Reference.ID, in.Type)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return prior, nil
	}

	batch, err := repos.Batches.GetForUpdate(ctx, in.BatchID)
	if err != nil {
		return nil, err
	}
	if batch.VariantID != variant.ID {
		return nil, fmt.Errorf("lote %s no pertenece a la variante %s: %w", batch.ID, variant.ID, domain.ErrInvalidInput)
	}

	after, err := inventory.ApplyMovement(batch.CurrentQuantity, in.Type, in.Magnitude)
	if err != nil {
		var se *domain.StockError
		if errors.As(err, &se) {
			se.VariantID, se.BatchID = variant.ID, batch.ID
		}
		return nil, err
	}

	if err := repos.Batches.UpdateCurrentQuantity(ctx, batch.ID, after); err != nil {
		return nil, err
	}
	if _, err := repos.Variants.ApplyStockDelta(ctx, variant.ID, inventory.Signed(in.Type, in.Magnitude), variant.Version); err != nil {
		return nil, err
	}

	unitCost := batch.UnitCostPrice
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}
	now := r.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	batchID := batch.ID
	mov := &entity.Movement{
		ID:              uuid.New().String(),
		DealerID:        variant.DealerID,
		ProductID:       variant.ProductID,
		VariantID:       variant.ID,
		BatchID:         &batchID,
		Type:            in.Type,
		QuantityBefore:  batch.CurrentQuantity,
		QuantityChange:  in.Magnitude,
		QuantityAfter:   after,
		ReferenceType:   in.Reference.Type,
		ReferenceID:     in.Reference.ID,
		ReferenceNumber: in.Reference.Number,
		UnitCost:        unitCost,
		TotalValue:      in.Magnitude.Mul(unitCost),
		PerformedBy:     in.Actor,
		MovementDate:    date,
		Reason:          in.Reason,
		CreatedAt:       now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}
