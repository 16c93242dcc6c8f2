package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// ReceiveLine línea recibida de una orden de compra.
type ReceiveLine struct {
	LineID     string
	Quantity   decimal.Decimal
	BatchLabel string
}

// ReceiveInput entrada de una recepción (GRN).
type ReceiveInput struct {
	DealerID        string
	PurchaseOrderID string
	ReceivedDate    time.Time
	Lines           []ReceiveLine
	Actor           string
	// ReceiptKey identifica la entrega; sin ella el reintento se reconoce por fecha y cantidad.
	ReceiptKey string
}

// ReceivingService convierte recepciones de órdenes de compra en lotes.
// Cada línea se confirma en su propia transacción; un fallo no deshace las anteriores.
// Una línea ya recibida con la misma etiqueta de lote se devuelve como replay sin escribir.
type ReceivingService struct {
	exec   *executor
	ledger *BatchLedger
	orders repository.PurchaseOrderRepository
	cache  ValuationCache
	log    *logger.Logger
}

// NewReceivingService construye el servicio de recepción.
func NewReceivingService(exec *executor, ledger *BatchLedger, orders repository.PurchaseOrderRepository, cache ValuationCache, log *logger.Logger) *ReceivingService {
	return &ReceivingService{exec: exec, ledger: ledger, orders: orders, cache: cache, log: log.Component("receiving")}
}

// Receive procesa las líneas y recalcula el estado de la orden.
func (s *ReceivingService) Receive(ctx context.Context, in ReceiveInput) (*dto.ReceiptResponse, error) {
	if in.DealerID == "" || in.PurchaseOrderID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	po, err := s.orders.GetByID(ctx, in.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if po.DealerID != in.DealerID {
		return nil, domain.ErrForbidden
	}

	if in.ReceivedDate.IsZero() {
		in.ReceivedDate = s.ledger.now()
	}

	res := &dto.ReceiptResponse{PurchaseOrderID: po.ID, POStatus: po.Status, Lines: make([]dto.ReceiptLineResult, 0, len(in.Lines))}
	committed := 0
	for i, line := range in.Lines {
		r := dto.ReceiptLineResult{LineID: line.LineID}
		switch {
		case line.Quantity.IsZero():
			r.Skipped = true
			res.Lines = append(res.Lines, r)
			continue
		case line.Quantity.IsNegative():
			err := &domain.LineError{Line: i, LineID: line.LineID, Err: domain.ErrInvalidQuantity}
			r.Error, r.Code = err.Error(), domain.ErrorCode(err)
			res.Lines = append(res.Lines, r)
			continue
		}

		batch, mov, replayed, err := s.receiveLine(ctx, po, line, in)
		switch {
		case err != nil:
			lerr := &domain.LineError{Line: i, LineID: line.LineID, Err: err}
			r.Error, r.Code = lerr.Error(), domain.ErrorCode(err)
			s.log.Warn().Str("dealer_id", in.DealerID).Str("purchase_order_id", po.ID).
				Str("line_id", line.LineID).Err(err).Msg("línea de recepción rechazada")
		case replayed:
			r.OK, r.Replayed, r.BatchID, r.MovementID = true, true, batch.ID, mov.ID
		default:
			r.OK, r.BatchID, r.MovementID = true, batch.ID, mov.ID
			committed++
		}
		res.Lines = append(res.Lines, r)
	}

	if committed > 0 {
		status, err := s.refreshStatus(ctx, po.ID)
		if err != nil {
			return nil, fmt.Errorf("actualizar estado de la orden: %w", err)
		}
		res.POStatus = status
		if err := s.cache.Invalidate(ctx, in.DealerID); err != nil {
			s.log.Warn().Err(err).Str("dealer_id", in.DealerID).Msg("no se pudo invalidar la valoración en cache")
		}
	}
	s.log.Info().Str("dealer_id", in.DealerID).Str("purchase_order_id", po.ID).
		Int("lines", len(in.Lines)).Int("committed", committed).Str("status", res.POStatus).Msg("recepción procesada")
	return res, nil
}

func (s *ReceivingService) receiveLine(ctx context.Context, po *entity.PurchaseOrder, line ReceiveLine, in ReceiveInput) (*entity.InventoryBatch, *entity.Movement, bool, error) {
	var (
		batch    *entity.InventoryBatch
		mov      *entity.Movement
		replayed bool
	)
	label := strings.TrimSpace(line.BatchLabel)
	if label == "" {
		label = ReceiptBatchNumber(po.ID, line.LineID, in.ReceiptKey, line.Quantity, in.ReceivedDate)
	}
	err := s.exec.run(ctx, "receive", func(ctx context.Context, repos Repos) error {
		batch, mov, replayed = nil, nil, false
		poLine, err := repos.PurchaseOrders.GetLineForUpdate(ctx, po.ID, line.LineID)
		if err != nil {
			return err
		}

		// Bajo el lock de la línea: un lote previo con la misma etiqueta es un reintento.
		prior, err := repos.Batches.GetByNumber(ctx, in.DealerID, poLine.VariantID, label)
		switch {
		case err == nil:
			batch, mov, err = s.priorReceipt(ctx, repos, po, prior, line)
			replayed = err == nil
			return err
		case !errors.Is(err, domain.ErrBatchNotFound):
			return err
		}

		if line.Quantity.GreaterThan(poLine.Pending()) {
			return fmt.Errorf("pendiente %s, recibido %s: %w", poLine.Pending(), line.Quantity, domain.ErrOverReceipt)
		}
		batch, mov, err = s.ledger.CreateBatch(ctx, repos, NewBatchInput{
			DealerID:     in.DealerID,
			VariantID:    poLine.VariantID,
			Quantity:     line.Quantity,
			UnitCost:     poLine.UnitCost,
			BatchNumber:  label,
			ReceivedDate: in.ReceivedDate,
			Source:       entity.BatchSourcePurchaseOrder,
			Reference:    Reference{Type: entity.ReferencePurchaseOrder, ID: po.ID, Number: po.Number},
			Actor:        in.Actor,
			Reason:       "recepción orden de compra " + po.Number,
		})
		if err != nil {
			return err
		}
		return repos.PurchaseOrders.IncrementReceived(ctx, poLine.ID, line.Quantity)
	})
	if err != nil {
		return nil, nil, false, err
	}
	return batch, mov, replayed, nil
}

// priorReceipt valida que el lote existente sea la misma recepción y devuelve su movimiento de entrada.
func (s *ReceivingService) priorReceipt(ctx context.Context, repos Repos, po *entity.PurchaseOrder, prior *entity.InventoryBatch, line ReceiveLine) (*entity.InventoryBatch, *entity.Movement, error) {
	dup := fmt.Errorf("lote %s: %w", prior.BatchNumber, domain.ErrDuplicateBatchLabel)
	if prior.SourceType != entity.BatchSourcePurchaseOrder || prior.SourceReference == nil ||
		*prior.SourceReference != po.ID || !prior.InitialQuantity.Equal(line.Quantity) {
		return nil, nil, dup
	}
	mov, err := repos.Movements.FindByReference(ctx, prior.ID, entity.ReferencePurchaseOrder, po.ID, entity.MovementTypeIn)
	if err != nil {
		return nil, nil, err
	}
	if mov == nil {
		return nil, nil, dup
	}
	return prior, mov, nil
}

// ReceiptBatchNumber etiqueta determinista de una línea recibida sin etiqueta.
// Con receiptKey la identidad es (orden, línea, clave): B-<16 hex>.
// Sin ella es (orden, línea, día, cantidad): B-YYYYMMDD-<12 hex>.
func ReceiptBatchNumber(poID, lineID, receiptKey string, qty decimal.Decimal, day time.Time) string {
	if key := strings.TrimSpace(receiptKey); key != "" {
		return "B-" + nameHash(poID+"|"+lineID+"|"+key)[:16]
	}
	date := day.UTC().Format("20060102")
	return fmt.Sprintf("B-%s-%s", date, nameHash(poID+"|"+lineID+"|"+date+"|"+qty.String())[:12])
}

func nameHash(name string) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
}

// refreshStatus relee la orden dentro de una transacción y persiste el estado derivado.
func (s *ReceivingService) refreshStatus(ctx context.Context, poID string) (string, error) {
	var status string
	err := s.exec.run(ctx, "po_status", func(ctx context.Context, repos Repos) error {
		po, err := repos.PurchaseOrders.GetByID(ctx, poID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrPurchaseOrderNotFound
			}
			return err
		}
		status = entity.DeriveStatus(po.Lines)
		if status == po.Status {
			return nil
		}
		return repos.PurchaseOrders.UpdateStatus(ctx, po.ID, status)
	})
	return status, err
}
