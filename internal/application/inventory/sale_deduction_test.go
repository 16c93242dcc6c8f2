package inventory_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func deduct(ref string, lines ...inventory.SaleLine) inventory.DeductInput {
	return inventory.DeductInput{DealerID: dealer, Reference: ref, Number: "F-" + ref, Lines: lines, Actor: "cajero"}
}

func line(variantID string, qty int64) inventory.SaleLine {
	return inventory.SaleLine{VariantID: variantID, Quantity: d(qty)}
}

// ──────────────────────────────────────────────────────────────────────────────
// Deduct
// ──────────────────────────────────────────────────────────────────────────────

// B1 5@10 y B2 5@12: vender 7 toma 5 de B1 y 2 de B2, COGS 74.
func TestDeduct_FIFOEntreLotes(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	b1 := f.batch(t, "v1", "B1", 5, 10, 2)
	b2 := f.batch(t, "v1", "B2", 5, 12, 1)

	res, err := f.svc.Sales.Deduct(f.ctx, deduct("sale-1", line("v1", 7)))
	require.NoError(t, err)

	assert.False(t, res.Replayed)
	assert.True(t, res.CostOfGoods.Equal(d(74)))
	require.Len(t, res.Lines, 1)
	assert.True(t, res.Lines[0].Quantity.Equal(d(7)))
	assert.True(t, res.Lines[0].CostOfGoods.Equal(d(74)))
	// (5×10 + 2×12) / 7
	assert.Equal(t, "10.5714", res.Lines[0].AverageUnitCost.String())
	require.Len(t, res.Movements, 2)
	assert.Equal(t, b1.ID, *res.Movements[0].BatchID)
	assert.True(t, res.Movements[0].QuantityChange.Equal(d(5)))
	assert.True(t, res.Movements[0].QuantityAfter.IsZero())
	assert.Equal(t, b2.ID, *res.Movements[1].BatchID)
	assert.True(t, res.Movements[1].QuantityChange.Equal(d(2)))
	assert.True(t, res.Movements[1].QuantityAfter.Equal(d(3)))

	assert.True(t, f.current(t, b1.ID).IsZero())
	assert.True(t, f.current(t, b2.ID).Equal(d(3)))
	assert.True(t, f.stock(t, "v1").Equal(d(3)))
	f.requireConserved(t)
}

// 8 sobre 3+3: falla sin escribir ningún movimiento.
func TestDeduct_FaltanteNoEscribeNada(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	b1 := f.batch(t, "v1", "B1", 3, 10, 2)
	b2 := f.batch(t, "v1", "B2", 3, 10, 1)

	_, err := f.svc.Sales.Deduct(f.ctx, deduct("sale-1", line("v1", 8)))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var lineErr *domain.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 0, lineErr.Line)
	assert.Equal(t, "v1", lineErr.VariantID)
	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, stockErr.Available.Equal(d(6)))

	assert.Empty(t, f.saleMovements(t, "sale-1", entity.MovementTypeOut))
	assert.True(t, f.current(t, b1.ID).Equal(d(3)))
	assert.True(t, f.current(t, b2.ID).Equal(d(3)))
	assert.True(t, f.stock(t, "v1").Equal(d(6)))
}

// Una línea válida y otra sin stock: la venta completa se rechaza.
func TestDeduct_MultiLineaAtomica(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	f.variant(t, "v2", "aceites", 40)
	f.batch(t, "v1", "A", 10, 10, 1)
	f.batch(t, "v2", "B", 1, 30, 1)

	_, err := f.svc.Sales.Deduct(f.ctx, deduct("sale-1", line("v1", 4), line("v2", 2)))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var lineErr *domain.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Line)
	assert.Equal(t, "v2", lineErr.VariantID)

	assert.True(t, f.stock(t, "v1").Equal(d(10)))
	assert.True(t, f.stock(t, "v2").Equal(d(1)))
	assert.Empty(t, f.saleMovements(t, "sale-1", entity.MovementTypeOut))
}

func TestDeduct_ReintentoEsIdempotente(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	f.batch(t, "v1", "B1", 10, 10, 1)

	first, err := f.svc.Sales.Deduct(f.ctx, deduct("sale-1", line("v1", 4)))
	require.NoError(t, err)
	second, err := f.svc.Sales.Deduct(f.ctx, deduct("sale-1", line("v1", 4)))
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.True(t, second.CostOfGoods.Equal(first.CostOfGoods))
	require.Len(t, second.Lines, 1)
	assert.True(t, second.Lines[0].AverageUnitCost.Equal(first.Lines[0].AverageUnitCost))
	assert.True(t, second.Lines[0].AverageUnitCost.Equal(d(10)))
	assert.Equal(t, first.Movements[0].ID, second.Movements[0].ID)
	assert.True(t, f.stock(t, "v1").Equal(d(6)))
	assert.Len(t, f.saleMovements(t, "sale-1", entity.MovementTypeOut), 1)
}

func TestDeduct_LineasRepetidasSeAgrupan(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	f.batch(t, "v1", "B1", 10, 10, 1)

	res, err := f.svc.Sales.Deduct(f.ctx, deduct("sale-1", line("v1", 2), line("v1", 3)))
	require.NoError(t, err)
	require.Len(t, res.Movements, 1)
	assert.True(t, res.Movements[0].QuantityChange.Equal(d(5)))
	assert.True(t, f.stock(t, "v1").Equal(d(5)))
}

func TestDeduct_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	f.batch(t, "v1", "B1", 10, 10, 1)

	_, err := f.svc.Sales.Deduct(f.ctx, deduct("", line("v1", 1)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Sales.Deduct(f.ctx, deduct("sale-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Sales.Deduct(f.ctx, deduct("sale-1", line("v1", 1), line("v1", 0)))
	var lineErr *domain.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Line)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.Sales.Deduct(f.ctx, deduct("sale-1", line("missing", 1)))
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)
}

func TestDeduct_VarianteDeOtroDealer(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	f.batch(t, "v1", "B1", 10, 10, 1)

	in := deduct("sale-1", line("v1", 1))
	in.DealerID = "dealer-2"
	_, err := f.svc.Sales.Deduct(f.ctx, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.True(t, f.stock(t, "v1").Equal(d(10)))
}

// N ventas concurrentes de 1 unidad contra M < N unidades: exactamente M confirmadas.
func TestDeduct_ConcurrenciaSinSobreventa(t *testing.T) {
	const n, m = 20, 5
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	f.batch(t, "v1", "B1", 3, 10, 2)
	f.batch(t, "v1", "B2", 2, 12, 1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, short int
		other     []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Sales.Deduct(f.ctx, deduct(fmt.Sprintf("sale-%d", i), line("v1", 1)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, m, ok)
	assert.Equal(t, n-m, short)
	assert.True(t, f.stock(t, "v1").IsZero())
	f.requireConserved(t)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reverse
// ──────────────────────────────────────────────────────────────────────────────

func TestReverse_DevuelveAlLoteOriginalOAbreLoteDeDevolucion(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	b1 := f.batch(t, "v1", "B1", 5, 10, 2)
	b2 := f.batch(t, "v1", "B2", 5, 12, 1)

	_, err := f.svc.Sales.Deduct(f.ctx, deduct("sale-1", line("v1", 7)))
	require.NoError(t, err)

	res, err := f.svc.Sales.Reverse(f.ctx, inventory.ReverseInput{DealerID: dealer, Reference: "sale-1", Actor: "admin"})
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.True(t, res.CostOfGoods.Equal(d(74)))
	require.Len(t, res.Movements, 2)

	// B1 quedó agotado: sus 5 unidades vuelven en un lote de devolución al mismo costo.
	assert.True(t, f.current(t, b1.ID).IsZero())
	assert.True(t, f.current(t, b2.ID).Equal(d(5)))
	assert.True(t, f.stock(t, "v1").Equal(d(10)))

	batches, err := f.svc.Ledger.ListBatches(f.ctx, dealer, "v1")
	require.NoError(t, err)
	var returned []string
	for _, b := range batches {
		if b.SourceType == string(entity.BatchSourceReturn) {
			returned = append(returned, b.BatchNumber)
			assert.True(t, b.CurrentQuantity.Equal(d(5)))
			assert.True(t, b.UnitCostPrice.Equal(d(10)))
		}
	}
	assert.Equal(t, []string{"RET-B1-sale-1"}, returned)
	f.requireConserved(t)

	again, err := f.svc.Sales.Reverse(f.ctx, inventory.ReverseInput{DealerID: dealer, Reference: "sale-1"})
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.True(t, f.stock(t, "v1").Equal(d(10)))
}

func TestReverse_VentaInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Sales.Reverse(f.ctx, inventory.ReverseInput{DealerID: dealer, Reference: "nope"})
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}
