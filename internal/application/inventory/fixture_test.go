package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

const dealer = "dealer-1"

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	ctx   context.Context
	store *memory.Store
	repos inventory.Repos
	svc   *inventory.Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	svc := inventory.NewServices(inventory.Deps{
		Tx:             store,
		Batches:        repos.Batches,
		Movements:      repos.Movements,
		PurchaseOrders: repos.PurchaseOrders,
		Valuation:      store.Valuation(),
		Retry:          inventory.RetryPolicy{MaxAttempts: 3},
		Clock:          func() time.Time { return now },
	})
	return &fixture{ctx: context.Background(), store: store, repos: repos, svc: svc}
}

func (f *fixture) variant(t *testing.T, id, category string, retail int64) {
	t.Helper()
	require.NoError(t, f.repos.Variants.Create(f.ctx, &entity.ProductVariant{
		ID: id, DealerID: dealer, ProductID: "prod-" + id, SKU: "SKU-" + id, Name: id,
		Category: category, RetailPrice: d(retail), StockQuantity: decimal.Zero,
	}))
}

// batch abre un lote con su movimiento de entrada, recibido daysAgo días antes de now.
func (f *fixture) batch(t *testing.T, variantID, label string, qty, cost int64, daysAgo int) *entity.InventoryBatch {
	t.Helper()
	var b *entity.InventoryBatch
	require.NoError(t, f.store.Run(f.ctx, func(ctx context.Context, repos inventory.Repos) error {
		var err error
		b, _, err = f.svc.Ledger.CreateBatch(ctx, repos, inventory.NewBatchInput{
			DealerID:     dealer,
			VariantID:    variantID,
			Quantity:     d(qty),
			UnitCost:     d(cost),
			BatchNumber:  label,
			ReceivedDate: now.AddDate(0, 0, -daysAgo),
			Reference:    inventory.Reference{Type: entity.ReferencePurchaseOrder, ID: "po-" + label},
			Actor:        "tester",
		})
		return err
	}))
	return b
}

func (f *fixture) stock(t *testing.T, variantID string) decimal.Decimal {
	t.Helper()
	v, err := f.repos.Variants.GetByID(f.ctx, variantID)
	require.NoError(t, err)
	return v.StockQuantity
}

func (f *fixture) current(t *testing.T, batchID string) decimal.Decimal {
	t.Helper()
	b, err := f.repos.Batches.GetByID(f.ctx, batchID)
	require.NoError(t, err)
	return b.CurrentQuantity
}

func (f *fixture) requireConserved(t *testing.T) {
	t.Helper()
	drift, err := f.svc.Ledger.VerifyConservation(f.ctx, dealer)
	require.NoError(t, err)
	require.Empty(t, drift)
}

func (f *fixture) saleMovements(t *testing.T, ref string, typ entity.MovementType) []*entity.Movement {
	t.Helper()
	movs, err := f.repos.Movements.ListByReference(f.ctx, dealer, entity.ReferenceSale, ref, typ)
	require.NoError(t, err)
	return movs
}
