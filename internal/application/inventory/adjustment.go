package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// AdjustInput ajuste manual sobre un lote existente.
type AdjustInput struct {
	DealerID       string
	BatchID        string
	Delta          decimal.Decimal // positivo entra, negativo sale
	ReasonCode     entity.AdjustmentReason
	Notes          string
	Actor          string
	IdempotencyKey string
}

// AdjustmentService correcciones manuales con motivo obligatorio.
type AdjustmentService struct {
	exec     *executor
	recorder *MovementRecorder
	cache    ValuationCache
	log      *logger.Logger
}

// NewAdjustmentService construye el servicio de ajustes.
func NewAdjustmentService(exec *executor, recorder *MovementRecorder, cache ValuationCache, log *logger.Logger) *AdjustmentService {
	return &AdjustmentService{exec: exec, recorder: recorder, cache: cache, log: log.Component("adjustment")}
}

// Adjust registra el ajuste como movimiento in/out con reference_type=adjustment.
func (s *AdjustmentService) Adjust(ctx context.Context, in AdjustInput) (*entity.Movement, error) {
	if !in.ReasonCode.Valid() {
		return nil, domain.ErrInvalidReasonCode
	}
	if in.Delta.IsZero() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.DealerID == "" || in.BatchID == "" {
		return nil, domain.ErrInvalidInput
	}

	// La clave se fija fuera de la transacción para que los reintentos la reutilicen.
	refID := strings.TrimSpace(in.IdempotencyKey)
	if refID == "" {
		refID = uuid.New().String()
	}
	typ := entity.MovementTypeIn
	if in.Delta.IsNegative() {
		typ = entity.MovementTypeOut
	}
	reason := string(in.ReasonCode)
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		reason += ": " + notes
	}

	var mov *entity.Movement
	err := s.exec.run(ctx, "adjust", func(ctx context.Context, repos Repos) error {
		batch, err := repos.Batches.GetByID(ctx, in.BatchID)
		if err != nil {
			return err
		}
		if batch.DealerID != in.DealerID {
			return domain.ErrForbidden
		}
		mov, err = s.recorder.Record(ctx, repos, RecordInput{
			DealerID:  in.DealerID,
			BatchID:   batch.ID,
			VariantID: batch.VariantID,
			Type:      typ,
			Magnitude: in.Delta.Abs(),
			Reference: Reference{Type: entity.ReferenceAdjustment, ID: refID},
			Reason:    reason,
			Actor:     in.Actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, in.DealerID); err != nil {
		s.log.Warn().Err(err).Str("dealer_id", in.DealerID).Msg("no se pudo invalidar la valoración en cache")
	}
	s.log.Info().Str("dealer_id", in.DealerID).Str("batch_id", in.BatchID).
		Str("delta", in.Delta.String()).Str("reason", string(in.ReasonCode)).Msg("ajuste registrado")
	return mov, nil
}
