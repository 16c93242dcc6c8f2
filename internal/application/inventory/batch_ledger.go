package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// NewBatchInput datos para abrir un lote.
type NewBatchInput struct {
	DealerID     string
	VariantID    string
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	BatchNumber  string // vacío -> B-YYYYMMDD-xxxxxxxx
	ReceivedDate time.Time
	Source       entity.BatchSource
	Reference    Reference
	Actor        string
	Reason       string
}

// BatchLedger crea lotes, asigna consumo FIFO y expone las vistas de auditoría.
type BatchLedger struct {
	recorder  *MovementRecorder
	batches   repository.BatchRepository
	movements repository.MovementRepository
	valuation repository.ValuationRepository
	now       func() time.Time
}

// NewBatchLedger construye el ledger de lotes. Los repositorios son de solo lectura (fuera de tx).
func NewBatchLedger(
	recorder *MovementRecorder,
	batches repository.BatchRepository,
	movements repository.MovementRepository,
	valuation repository.ValuationRepository,
	now func() time.Time,
) *BatchLedger {
	if now == nil {
		now = time.Now
	}
	return &BatchLedger{recorder: recorder, batches: batches, movements: movements, valuation: valuation, now: now}
}

// CreateBatch inserta el lote vacío y registra su movimiento de apertura "in" vía MovementRecorder.
// Al volver CurrentQuantity == InitialQuantity == Quantity.
func (l *BatchLedger) CreateBatch(ctx context.Context, repos Repos, in NewBatchInput) (*entity.InventoryBatch, *entity.Movement, error) {
	if !in.Quantity.IsPositive() {
		return nil, nil, domain.ErrInvalidQuantity
	}
	if in.UnitCost.IsNegative() {
		return nil, nil, fmt.Errorf("costo unitario negativo: %w", domain.ErrInvalidInput)
	}
	variant, err := repos.Variants.GetForUpdate(ctx, in.VariantID)
	if err != nil {
		return nil, nil, err
	}
	if variant.DealerID != in.DealerID {
		return nil, nil, domain.ErrForbidden
	}

	now := l.now()
	received := in.ReceivedDate
	if received.IsZero() {
		received = now
	}
	label := strings.TrimSpace(in.BatchNumber)
	if label == "" {
		label = GenerateBatchNumber(received)
	}
	exists, err := repos.Batches.ExistsBatchNumber(ctx, in.DealerID, variant.ID, label)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, fmt.Errorf("lote %s: %w", label, domain.ErrDuplicateBatchLabel)
	}
	source := in.Source
	if source == "" {
		source = entity.BatchSourcePurchaseOrder
	}

	batch := &entity.InventoryBatch{
		ID:              uuid.New().String(),
		DealerID:        in.DealerID,
		ProductID:       variant.ProductID,
		VariantID:       variant.ID,
		BatchNumber:     label,
		InitialQuantity: in.Quantity,
		CurrentQuantity: decimal.Zero,
		UnitCostPrice:   in.UnitCost,
		ReceivedDate:    received,
		SourceType:      source,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.Reference.ID != "" {
		ref := in.Reference.ID
		batch.SourceReference = &ref
	}
	if err := repos.Batches.Create(ctx, batch); err != nil {
		return nil, nil, err
	}

	unitCost := in.UnitCost
	mov, err := l.recorder.Record(ctx, repos, RecordInput{
		DealerID:  in.DealerID,
		BatchID:   batch.ID,
		VariantID: variant.ID,
		Type:      entity.MovementTypeIn,
		Magnitude: in.Quantity,
		Reference: in.Reference,
		UnitCost:  &unitCost,
		Reason:    in.Reason,
		Actor:     in.Actor,
		Date:      received,
	})
	if err != nil {
		return nil, nil, err
	}
	batch.CurrentQuantity = mov.QuantityAfter
	return batch, mov, nil
}

// GenerateBatchNumber etiqueta por defecto: B-YYYYMMDD-<8 hex>.
func GenerateBatchNumber(day time.Time) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("B-%s-%s", day.Format("20060102"), strings.ToUpper(id[:8]))
}

// AllocateForConsumption bloquea los lotes con stock de la variante y devuelve el plan FIFO.
// Es todo-o-nada: ante faltante devuelve *domain.StockError y no escribe nada.
func (l *BatchLedger) AllocateForConsumption(ctx context.Context, repos Repos, variantID string, quantity decimal.Decimal) ([]inventory.Allocation, error) {
	batches, err := repos.Batches.ListAvailableForUpdate(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return inventory.AllocateFIFO(variantID, batches, quantity)
}

// ListBatches lotes de una variante del dealer en orden FIFO.
func (l *BatchLedger) ListBatches(ctx context.Context, dealerID, variantID string) ([]dto.BatchDTO, error) {
	if dealerID == "" || variantID == "" {
		return nil, domain.ErrInvalidInput
	}
	batches, err := l.batches.ListByVariant(ctx, dealerID, variantID)
	if err != nil {
		return nil, err
	}
	inventory.SortFIFO(batches)
	out := make([]dto.BatchDTO, 0, len(batches))
	for _, b := range batches {
		out = append(out, ToBatchDTO(b))
	}
	return out, nil
}

// ListMovements log de movimientos del dealer, más reciente primero.
func (l *BatchLedger) ListMovements(ctx context.Context, f repository.MovementFilter) ([]dto.MovementDTO, error) {
	if f.DealerID == "" {
		return nil, domain.ErrInvalidInput
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, fmt.Errorf("rango de fechas: %w", domain.ErrInvalidInput)
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	movs, err := l.movements.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return ToMovementDTOs(movs), nil
}

// VerifyConservation variantes cuyo stock_quantity difiere de la suma de sus lotes (vacío si todo cuadra).
func (l *BatchLedger) VerifyConservation(ctx context.Context, dealerID string) ([]dto.DriftDTO, error) {
	if dealerID == "" {
		return nil, domain.ErrInvalidInput
	}
	drift, err := l.valuation.ConservationDrift(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DriftDTO, 0, len(drift))
	for _, d := range drift {
		out = append(out, dto.DriftDTO{VariantID: d.VariantID, StockQuantity: d.StockQuantity, BatchTotal: d.BatchTotal})
	}
	return out, nil
}

// ToBatchDTO convierte la entidad a DTO.
func ToBatchDTO(b *entity.InventoryBatch) dto.BatchDTO {
	return dto.BatchDTO{
		ID:              b.ID,
		VariantID:       b.VariantID,
		ProductID:       b.ProductID,
		BatchNumber:     b.BatchNumber,
		InitialQuantity: b.InitialQuantity,
		CurrentQuantity: b.CurrentQuantity,
		UnitCostPrice:   b.UnitCostPrice,
		ReceivedDate:    b.ReceivedDate,
		SourceType:      string(b.SourceType),
		SourceReference: b.SourceReference,
	}
}

// ToMovementDTOs convierte movimientos a DTO preservando el orden.
func ToMovementDTOs(movs []*entity.Movement) []dto.MovementDTO {
	out := make([]dto.MovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.MovementDTO{
			ID:              m.ID,
			VariantID:       m.VariantID,
			ProductID:       m.ProductID,
			BatchID:         m.BatchID,
			MovementType:    string(m.Type),
			QuantityBefore:  m.QuantityBefore,
			QuantityChange:  m.QuantityChange,
			QuantityAfter:   m.QuantityAfter,
			ReferenceType:   string(m.ReferenceType),
			ReferenceID:     m.ReferenceID,
			ReferenceNumber: m.ReferenceNumber,
			UnitCost:        m.UnitCost,
			TotalValue:      m.TotalValue,
			PerformedBy:     m.PerformedBy,
			MovementDate:    m.MovementDate,
			Reason:          m.Reason,
		})
	}
	return out
}
