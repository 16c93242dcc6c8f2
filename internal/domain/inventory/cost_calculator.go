package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// CostCalculator costo promedio ponderado de dos tramos de stock (servicio de dominio).
// NuevoCosto = ((CantA * CostoA) + (CantB * CostoB)) / (CantA + CantB)
// Se usa para reportar el costo unitario medio de un grupo de lotes; el COGS de una venta
// se calcula por lote consumido (ver COGS).
func CostCalculator(qtyA, costA, qtyB, costB decimal.Decimal) decimal.Decimal {
	sum := qtyA.Add(qtyB)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := qtyA.Mul(costA).Add(qtyB.Mul(costB))
	return num.Div(sum)
}

// COGS suma cantidad × costo unitario del lote para cada asignación.
func COGS(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Cost())
	}
	return total
}

// AverageUnitCost costo unitario medio de un conjunto de asignaciones (0 si no hay cantidad).
func AverageUnitCost(allocs []Allocation) decimal.Decimal {
	qty, cost := decimal.Zero, decimal.Zero
	for _, a := range allocs {
		if qty.IsZero() {
			qty, cost = a.Quantity, a.Batch.UnitCostPrice
			continue
		}
		cost = CostCalculator(qty, cost, a.Quantity, a.Batch.UnitCostPrice)
		qty = qty.Add(a.Quantity)
	}
	return cost
}

// MovementAllocations reconstruye las asignaciones de movimientos ya registrados
// (costo unitario del movimiento como costo del lote).
func MovementAllocations(movs []*entity.Movement) []Allocation {
	allocs := make([]Allocation, 0, len(movs))
	for _, m := range movs {
		allocs = append(allocs, Allocation{
			Batch:    &entity.InventoryBatch{ID: m.BatchRef(), VariantID: m.VariantID, UnitCostPrice: m.UnitCost},
			Quantity: m.QuantityChange,
		})
	}
	return allocs
}
