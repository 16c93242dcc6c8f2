package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// SaleLine cantidad vendida de una variante.
type SaleLine struct {
	VariantID string
	Quantity  decimal.Decimal
}

// DeductInput deducción de stock por una venta confirmada (POS o facturación de servicio).
type DeductInput struct {
	DealerID  string
	Reference string // id de la venta; clave de idempotencia
	Number    string // número legible (factura, ticket)
	Lines     []SaleLine
	Actor     string
}

// ReverseInput reversa de una venta ya deducida.
type ReverseInput struct {
	DealerID  string
	Reference string
	Actor     string
	Reason    string
}

// SaleDeductionService descuenta stock por venta consumiendo lotes en FIFO.
// Todas las líneas se confirman juntas o ninguna.
type SaleDeductionService struct {
	exec     *executor
	ledger   *BatchLedger
	recorder *MovementRecorder
	cache    ValuationCache
	log      *logger.Logger
}

// NewSaleDeductionService construye el servicio de deducción por venta.
func NewSaleDeductionService(exec *executor, ledger *BatchLedger, recorder *MovementRecorder, cache ValuationCache, log *logger.Logger) *SaleDeductionService {
	return &SaleDeductionService{exec: exec, ledger: ledger, recorder: recorder, cache: cache, log: log.Component("sale_deduction")}
}

type mergedLine struct {
	index     int // primera aparición en el request
	variantID string
	quantity  decimal.Decimal
}

// mergeLines agrupa líneas repetidas de la misma variante conservando el orden de aparición.
func mergeLines(lines []SaleLine) ([]mergedLine, error) {
	byVariant := make(map[string]int, len(lines))
	out := make([]mergedLine, 0, len(lines))
	for i, l := range lines {
		id := strings.TrimSpace(l.VariantID)
		if id == "" {
			return nil, &domain.LineError{Line: i, Err: domain.ErrInvalidInput}
		}
		if !l.Quantity.IsPositive() {
			return nil, &domain.LineError{Line: i, VariantID: id, Err: domain.ErrInvalidQuantity}
		}
		if pos, ok := byVariant[id]; ok {
			out[pos].quantity = out[pos].quantity.Add(l.Quantity)
			continue
		}
		byVariant[id] = len(out)
		out = append(out, mergedLine{index: i, variantID: id, quantity: l.Quantity})
	}
	return out, nil
}

// lockVariants bloquea las variantes en orden ascendente de id y verifica el dealer.
func lockVariants(ctx context.Context, repos Repos, dealerID string, ids []string) (map[string]*entity.ProductVariant, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := make(map[string]*entity.ProductVariant, len(sorted))
	for _, id := range sorted {
		if _, ok := out[id]; ok {
			continue
		}
		v, err := repos.Variants.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if v.DealerID != dealerID {
			return nil, domain.ErrForbidden
		}
		out[id] = v
	}
	return out, nil
}

// Deduct descuenta las líneas de la venta. Si la referencia ya fue deducida devuelve el
// resultado original (Replayed=true) sin escribir.
func (s *SaleDeductionService) Deduct(ctx context.Context, in DeductInput) (*dto.DeductionResponse, error) {
	ref := strings.TrimSpace(in.Reference)
	if in.DealerID == "" || ref == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	lines, err := mergeLines(in.Lines)
	if err != nil {
		return nil, err
	}
	saleRef := Reference{Type: entity.ReferenceSale, ID: ref, Number: in.Number}

	var res *dto.DeductionResponse
	err = s.exec.run(ctx, "deduct", func(ctx context.Context, repos Repos) error {
		ids := make([]string, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.variantID)
		}
		variants, err := lockVariants(ctx, repos, in.DealerID, ids)
		if err != nil {
			return err
		}

		prior, err := repos.Movements.ListByReference(ctx, in.DealerID, entity.ReferenceSale, ref, entity.MovementTypeOut)
		if err != nil {
			return err
		}
		if len(prior) > 0 {
			res = buildDeduction(ref, prior)
			res.Replayed = true
			return nil
		}

		// Validación completa antes de cualquier escritura.
		for _, l := range lines {
			v := variants[l.variantID]
			if v.StockQuantity.LessThan(l.quantity) {
				return &domain.LineError{Line: l.index, VariantID: l.variantID, Err: &domain.StockError{
					VariantID: l.variantID, Requested: l.quantity, Available: v.StockQuantity,
				}}
			}
		}

		movs := make([]*entity.Movement, 0, len(lines))
		for _, l := range lines {
			allocs, err := s.ledger.AllocateForConsumption(ctx, repos, l.variantID, l.quantity)
			if err != nil {
				return &domain.LineError{Line: l.index, VariantID: l.variantID, Err: err}
			}
			lineCost := decimal.Zero
			for _, a := range allocs {
				mov, err := s.recorder.Record(ctx, repos, RecordInput{
					DealerID:  in.DealerID,
					BatchID:   a.Batch.ID,
					VariantID: l.variantID,
					Type:      entity.MovementTypeOut,
					Magnitude: a.Quantity,
					Reference: saleRef,
					Reason:    "venta " + ref,
					Actor:     in.Actor,
				})
				if err != nil {
					return &domain.LineError{Line: l.index, VariantID: l.variantID, Err: err}
				}
				lineCost = lineCost.Add(mov.TotalValue)
				movs = append(movs, mov)
			}
			if cogs := inventory.COGS(allocs); !cogs.Equal(lineCost) {
				return fmt.Errorf("variante %s: costo por lotes %s, movimientos %s", l.variantID, cogs, lineCost)
			}
		}
		res = buildDeduction(ref, movs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !res.Replayed {
		if err := s.cache.Invalidate(ctx, in.DealerID); err != nil {
			s.log.Warn().Err(err).Str("dealer_id", in.DealerID).Msg("no se pudo invalidar la valoración en cache")
		}
	}
	s.log.Info().Str("dealer_id", in.DealerID).Str("reference", ref).Bool("replayed", res.Replayed).
		Int("movements", len(res.Movements)).Str("cogs", res.CostOfGoods.String()).Msg("venta deducida")
	return res, nil
}

// Reverse devuelve al stock lo deducido por una venta con movimientos "in" compensatorios.
// Cada salida vuelve a su lote original si aún tiene stock; si está agotado se abre un lote de devolución.
func (s *SaleDeductionService) Reverse(ctx context.Context, in ReverseInput) (*dto.DeductionResponse, error) {
	ref := strings.TrimSpace(in.Reference)
	if in.DealerID == "" || ref == "" {
		return nil, domain.ErrInvalidInput
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "reversa de venta " + ref
	}

	var res *dto.DeductionResponse
	err := s.exec.run(ctx, "reverse", func(ctx context.Context, repos Repos) error {
		outs, err := repos.Movements.ListByReference(ctx, in.DealerID, entity.ReferenceSale, ref, entity.MovementTypeOut)
		if err != nil {
			return err
		}
		if len(outs) == 0 {
			return domain.ErrSaleNotFound
		}
		ids := make([]string, 0, len(outs))
		for _, m := range outs {
			ids = append(ids, m.VariantID)
		}
		if _, err := lockVariants(ctx, repos, in.DealerID, ids); err != nil {
			return err
		}

		prior, err := repos.Movements.ListByReference(ctx, in.DealerID, entity.ReferenceSale, ref, entity.MovementTypeIn)
		if err != nil {
			return err
		}
		if len(prior) > 0 {
			res = buildDeduction(ref, prior)
			res.Replayed = true
			return nil
		}

		saleRef := Reference{Type: entity.ReferenceSale, ID: ref, Number: outs[0].ReferenceNumber}
		movs := make([]*entity.Movement, 0, len(outs))
		for _, out := range outs {
			mov, err := s.reverseOne(ctx, repos, in, saleRef, out, reason)
			if err != nil {
				return err
			}
			movs = append(movs, mov)
		}
		res = buildDeduction(ref, movs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Replayed {
		if err := s.cache.Invalidate(ctx, in.DealerID); err != nil {
			s.log.Warn().Err(err).Str("dealer_id", in.DealerID).Msg("no se pudo invalidar la valoración en cache")
		}
	}
	s.log.Info().Str("dealer_id", in.DealerID).Str("reference", ref).Bool("replayed", res.Replayed).
		Int("movements", len(res.Movements)).Msg("venta reversada")
	return res, nil
}

func (s *SaleDeductionService) reverseOne(ctx context.Context, repos Repos, in ReverseInput, saleRef Reference, out *entity.Movement, reason string) (*entity.Movement, error) {
	unitCost := out.UnitCost
	label := "RET-" + saleRef.ID
	if out.BatchID != nil {
		orig, err := repos.Batches.GetByID(ctx, *out.BatchID)
		if err != nil {
			return nil, err
		}
		if orig.Available() {
			return s.recorder.Record(ctx, repos, RecordInput{
				DealerID:  in.DealerID,
				BatchID:   orig.ID,
				VariantID: out.VariantID,
				Type:      entity.MovementTypeIn,
				Magnitude: out.QuantityChange,
				Reference: saleRef,
				UnitCost:  &unitCost,
				Reason:    reason,
				Actor:     in.Actor,
			})
		}
		label = fmt.Sprintf("RET-%s-%s", orig.BatchNumber, saleRef.ID)
	}
	_, mov, err := s.ledger.CreateBatch(ctx, repos, NewBatchInput{
		DealerID:    in.DealerID,
		VariantID:   out.VariantID,
		Quantity:    out.QuantityChange,
		UnitCost:    unitCost,
		BatchNumber: label,
		Source:      entity.BatchSourceReturn,
		Reference:   saleRef,
		Actor:       in.Actor,
		Reason:      reason,
	})
	return mov, err
}

// buildDeduction arma el resultado a partir de los movimientos (nuevos o previos).
// Las líneas conservan el orden de la primera aparición de cada variante.
func buildDeduction(ref string, movs []*entity.Movement) *dto.DeductionResponse {
	res := &dto.DeductionResponse{Reference: ref, CostOfGoods: decimal.Zero}
	var order []string
	byVariant := make(map[string][]*entity.Movement)
	for _, m := range movs {
		if _, ok := byVariant[m.VariantID]; !ok {
			order = append(order, m.VariantID)
		}
		byVariant[m.VariantID] = append(byVariant[m.VariantID], m)
	}
	for _, id := range order {
		allocs := inventory.MovementAllocations(byVariant[id])
		cogs := inventory.COGS(allocs)
		res.Lines = append(res.Lines, dto.LineCostDTO{
			VariantID:       id,
			Quantity:        inventory.TotalQuantity(allocs),
			CostOfGoods:     cogs,
			AverageUnitCost: inventory.AverageUnitCost(allocs).Round(4),
		})
		res.CostOfGoods = res.CostOfGoods.Add(cogs)
	}
	res.Movements = ToMovementDTOs(movs)
	return res
}

