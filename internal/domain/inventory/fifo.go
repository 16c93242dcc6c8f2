package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Allocation cantidad a consumir de un lote concreto.
type Allocation struct {
	Batch    *entity.InventoryBatch
	Quantity decimal.Decimal
}

// Cost costo de la porción asignada.
func (a Allocation) Cost() decimal.Decimal {
	return a.Quantity.Mul(a.Batch.UnitCostPrice)
}

// SortFIFO ordena los lotes del más antiguo al más reciente (fecha de recepción,
// luego fecha de creación y número de lote para desempatar de forma determinista).
func SortFIFO(batches []*entity.InventoryBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.BatchNumber < b.BatchNumber
	})
}

// AllocateFIFO asigna quantity sobre los lotes con stock, del más antiguo al más reciente.
// Es todo-o-nada: si la suma disponible no alcanza devuelve *domain.StockError y ninguna asignación.
func AllocateFIFO(variantID string, batches []*entity.InventoryBatch, quantity decimal.Decimal) ([]Allocation, error) {
	if !quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	available := make([]*entity.InventoryBatch, 0, len(batches))
	total := decimal.Zero
	for _, b := range batches {
		if b.VariantID != variantID || !b.Available() {
			continue
		}
		available = append(available, b)
		total = total.Add(b.CurrentQuantity)
	}
	if total.LessThan(quantity) {
		return nil, &domain.StockError{VariantID: variantID, Requested: quantity, Available: total}
	}
	SortFIFO(available)

	remaining := quantity
	allocs := make([]Allocation, 0, len(available))
	for _, b := range available {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, b.CurrentQuantity)
		allocs = append(allocs, Allocation{Batch: b, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return allocs, nil
}

// TotalQuantity suma las cantidades asignadas.
func TotalQuantity(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Quantity)
	}
	return total
}
