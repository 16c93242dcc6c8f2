package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.VariantRepository       = (*variantRepo)(nil)
	_ repository.BatchRepository         = (*batchRepo)(nil)
	_ repository.MovementRepository      = (*movementRepo)(nil)
	_ repository.PurchaseOrderRepository = (*purchaseOrderRepo)(nil)
)

// ── Variantes ─────────────────────────────────────────────────────────────────

type variantRepo struct {
	a   access
	now func() time.Time
}

func (r *variantRepo) Create(_ context.Context, v *entity.ProductVariant) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.variants[v.ID]; ok {
			return domain.ErrInvalidInput
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = r.now()
		}
		v.UpdatedAt = v.CreatedAt
		st.variants[v.ID] = *v
		return nil
	})
}

func (r *variantRepo) GetByID(_ context.Context, id string) (*entity.ProductVariant, error) {
	var out *entity.ProductVariant
	err := r.a.read(func(st *state) error {
		v, ok := st.variants[id]
		if !ok {
			return domain.ErrVariantNotFound
		}
		out = &v
		return nil
	})
	return out, err
}

// GetForUpdate en memoria equivale a GetByID: la transacción ya tiene el lock del store.
func (r *variantRepo) GetForUpdate(ctx context.Context, id string) (*entity.ProductVariant, error) {
	return r.GetByID(ctx, id)
}

func (r *variantRepo) ApplyStockDelta(_ context.Context, id string, delta decimal.Decimal, expectedVersion int64) (*entity.ProductVariant, error) {
	var out *entity.ProductVariant
	err := r.a.write(func(st *state) error {
		v, ok := st.variants[id]
		if !ok {
			return domain.ErrVariantNotFound
		}
		if v.Version != expectedVersion {
			return domain.ErrConcurrentModification
		}
		next := v.StockQuantity.Add(delta)
		if next.IsNegative() {
			return &domain.StockError{VariantID: id, Requested: delta.Neg(), Available: v.StockQuantity}
		}
		v.StockQuantity = next
		v.Version++
		v.UpdatedAt = r.now()
		st.variants[id] = v
		out = &v
		return nil
	})
	return out, err
}

func (r *variantRepo) ListByDealer(_ context.Context, dealerID string) ([]*entity.ProductVariant, error) {
	var out []*entity.ProductVariant
	err := r.a.read(func(st *state) error {
		for _, v := range st.variants {
			if v.DealerID == dealerID {
				v := v
				out = append(out, &v)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, err
}

// ── Lotes ─────────────────────────────────────────────────────────────────────

type batchRepo struct {
	a   access
	now func() time.Time
}

func (r *batchRepo) Create(_ context.Context, b *entity.InventoryBatch) error {
	return r.a.write(func(st *state) error {
		for _, other := range st.batches {
			if other.DealerID == b.DealerID && other.VariantID == b.VariantID && other.BatchNumber == b.BatchNumber {
				return domain.ErrDuplicateBatchLabel
			}
		}
		if b.CurrentQuantity.IsNegative() {
			return domain.ErrInvalidQuantity
		}
		st.batches[b.ID] = *b
		return nil
	})
}

func (r *batchRepo) GetByID(_ context.Context, id string) (*entity.InventoryBatch, error) {
	var out *entity.InventoryBatch
	err := r.a.read(func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return domain.ErrBatchNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *batchRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryBatch, error) {
	return r.GetByID(ctx, id)
}

func (r *batchRepo) ExistsBatchNumber(_ context.Context, dealerID, variantID, batchNumber string) (bool, error) {
	found := false
	err := r.a.read(func(st *state) error {
		for _, b := range st.batches {
			if b.DealerID == dealerID && b.VariantID == variantID && b.BatchNumber == batchNumber {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *batchRepo) GetByNumber(_ context.Context, dealerID, variantID, batchNumber string) (*entity.InventoryBatch, error) {
	var out *entity.InventoryBatch
	err := r.a.read(func(st *state) error {
		for _, b := range st.batches {
			if b.DealerID == dealerID && b.VariantID == variantID && b.BatchNumber == batchNumber {
				out = &b
				return nil
			}
		}
		return domain.ErrBatchNotFound
	})
	return out, err
}

func (r *batchRepo) UpdateCurrentQuantity(_ context.Context, id string, qty decimal.Decimal) error {
	return r.a.write(func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return domain.ErrBatchNotFound
		}
		if qty.IsNegative() {
			return &domain.StockError{VariantID: b.VariantID, BatchID: id, Requested: b.CurrentQuantity.Sub(qty), Available: b.CurrentQuantity}
		}
		b.CurrentQuantity = qty
		b.UpdatedAt = r.now()
		st.batches[id] = b
		return nil
	})
}

func (r *batchRepo) ListAvailableForUpdate(_ context.Context, variantID string) ([]*entity.InventoryBatch, error) {
	var out []*entity.InventoryBatch
	err := r.a.read(func(st *state) error {
		for _, b := range st.batches {
			if b.VariantID == variantID && b.Available() {
				b := b
				out = append(out, &b)
			}
		}
		return nil
	})
	inventory.SortFIFO(out)
	return out, err
}

func (r *batchRepo) ListByVariant(_ context.Context, dealerID, variantID string) ([]*entity.InventoryBatch, error) {
	var out []*entity.InventoryBatch
	err := r.a.read(func(st *state) error {
		for _, b := range st.batches {
			if b.DealerID == dealerID && b.VariantID == variantID {
				b := b
				out = append(out, &b)
			}
		}
		return nil
	})
	inventory.SortFIFO(out)
	return out, err
}

// ── Movimientos ───────────────────────────────────────────────────────────────

type movementRepo struct {
	a access
}

// Create replica el índice único (lote, referencia, tipo) de la base de datos.
func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.a.write(func(st *state) error {
		if m.BatchID != nil {
			for i := range st.movements {
				o := &st.movements[i]
				if o.BatchID != nil && *o.BatchID == *m.BatchID && o.ReferenceType == m.ReferenceType &&
					o.ReferenceID == m.ReferenceID && o.Type == m.Type {
					return domain.ErrConcurrentModification
				}
			}
		}
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.a.read(func(st *state) error {
		for i := range st.movements {
			if st.movements[i].ID == id {
				m := st.movements[i]
				out = &m
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (r *movementRepo) FindByReference(_ context.Context, batchID string, refType entity.ReferenceType, refID string, typ entity.MovementType) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.a.read(func(st *state) error {
		for i := range st.movements {
			m := st.movements[i]
			if m.BatchRef() == batchID && m.ReferenceType == refType && m.ReferenceID == refID && m.Type == typ {
				out = &m
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) ListByReference(_ context.Context, dealerID string, refType entity.ReferenceType, refID string, typ entity.MovementType) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.a.read(func(st *state) error {
		for i := range st.movements {
			m := st.movements[i]
			if m.DealerID == dealerID && m.ReferenceType == refType && m.ReferenceID == refID && m.Type == typ {
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.a.read(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if matches(&m, f) {
				out = append(out, &m)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].MovementDate.After(out[j].MovementDate) })
	if f.Offset >= len(out) {
		return []*entity.Movement{}, err
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

func matches(m *entity.Movement, f repository.MovementFilter) bool {
	switch {
	case f.DealerID != "" && m.DealerID != f.DealerID,
		f.VariantID != "" && m.VariantID != f.VariantID,
		f.BatchID != "" && m.BatchRef() != f.BatchID,
		f.ReferenceType != "" && m.ReferenceType != f.ReferenceType,
		f.ReferenceID != "" && m.ReferenceID != f.ReferenceID,
		f.Type != "" && m.Type != f.Type,
		f.From != nil && m.MovementDate.Before(*f.From),
		f.To != nil && !m.MovementDate.Before(*f.To):
		return false
	}
	return true
}

// ── Órdenes de compra ─────────────────────────────────────────────────────────

type purchaseOrderRepo struct {
	a   access
	now func() time.Time
}

func (r *purchaseOrderRepo) Create(_ context.Context, po *entity.PurchaseOrder) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.orders[po.ID]; ok {
			return domain.ErrInvalidInput
		}
		cp := *po
		cp.Lines = append([]entity.PurchaseOrderLine(nil), po.Lines...)
		if cp.Status == "" {
			cp.Status = entity.PurchaseOrderPending
		}
		st.orders[po.ID] = cp
		return nil
	})
}

func (r *purchaseOrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	err := r.a.read(func(st *state) error {
		po, ok := st.orders[id]
		if !ok {
			return domain.ErrPurchaseOrderNotFound
		}
		po.Lines = append([]entity.PurchaseOrderLine(nil), po.Lines...)
		out = &po
		return nil
	})
	return out, err
}

func (r *purchaseOrderRepo) GetLineForUpdate(_ context.Context, purchaseOrderID, lineID string) (*entity.PurchaseOrderLine, error) {
	var out *entity.PurchaseOrderLine
	err := r.a.read(func(st *state) error {
		po, ok := st.orders[purchaseOrderID]
		if !ok {
			return domain.ErrPurchaseOrderNotFound
		}
		for _, l := range po.Lines {
			if l.ID == lineID {
				l := l
				out = &l
				return nil
			}
		}
		return domain.ErrPurchaseOrderLineNotFound
	})
	return out, err
}

func (r *purchaseOrderRepo) IncrementReceived(_ context.Context, lineID string, qty decimal.Decimal) error {
	return r.a.write(func(st *state) error {
		for id, po := range st.orders {
			for i := range po.Lines {
				if po.Lines[i].ID != lineID {
					continue
				}
				next := po.Lines[i].ReceivedQuantity.Add(qty)
				if next.GreaterThan(po.Lines[i].OrderedQuantity) {
					return domain.ErrOverReceipt
				}
				lines := append([]entity.PurchaseOrderLine(nil), po.Lines...)
				lines[i].ReceivedQuantity = next
				po.Lines = lines
				po.UpdatedAt = r.now()
				st.orders[id] = po
				return nil
			}
		}
		return domain.ErrPurchaseOrderLineNotFound
	})
}

func (r *purchaseOrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	return r.a.write(func(st *state) error {
		po, ok := st.orders[id]
		if !ok {
			return domain.ErrPurchaseOrderNotFound
		}
		po.Status = status
		po.UpdatedAt = r.now()
		st.orders[id] = po
		return nil
	})
}
