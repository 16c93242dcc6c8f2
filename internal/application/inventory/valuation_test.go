package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

func TestValuation_PorCategoriaSoloLotesConStock(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	f.variant(t, "v2", "aceites", 50)
	f.batch(t, "v1", "A", 4, 10, 3)
	f.batch(t, "v1", "B", 2, 12, 2)
	f.batch(t, "v2", "C", 1, 30, 1)

	_, err := f.svc.Sales.Deduct(f.ctx, deduct("s1", line("v1", 4)))
	require.NoError(t, err)

	val, err := f.svc.Valuation.Valuation(f.ctx, dealer)
	require.NoError(t, err)
	assert.Equal(t, dealer, val.DealerID)
	assert.True(t, val.TotalUnits.Equal(d(3)))
	assert.True(t, val.TotalCost.Equal(d(54)))   // 2*12 + 1*30
	assert.True(t, val.TotalRetail.Equal(d(90))) // 2*20 + 1*50
	require.Len(t, val.ByCategory, 2)
	assert.Equal(t, "aceites", val.ByCategory[0].Category)
	assert.Equal(t, "filtros", val.ByCategory[1].Category)
	assert.True(t, val.ByCategory[1].Cost.Equal(d(24)))
}

func TestDailySalesSeries_RellenaDiasSinVentas(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	f.batch(t, "v1", "A", 10, 10, 5)

	_, err := f.svc.Sales.Deduct(f.ctx, deduct("s1", line("v1", 3)))
	require.NoError(t, err)
	_, err = f.svc.Sales.Deduct(f.ctx, deduct("s2", line("v1", 1)))
	require.NoError(t, err)
	_, err = f.svc.Sales.Reverse(f.ctx, inventory.ReverseInput{DealerID: dealer, Reference: "s2"})
	require.NoError(t, err)

	series, err := f.svc.Valuation.DailySalesSeries(f.ctx, dealer, now.AddDate(0, 0, -2), now)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "2026-03-08", series[0].Date)
	assert.True(t, series[0].Units.IsZero())
	assert.True(t, series[1].Amount.IsZero())

	today := series[2]
	assert.Equal(t, "2026-03-10", today.Date)
	assert.True(t, today.Units.Equal(d(3)), today.Units.String())
	assert.True(t, today.Amount.Equal(d(60)))
	assert.True(t, today.Cost.Equal(d(30)))
}

func TestDailySalesSeries_RangoInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Valuation.DailySalesSeries(f.ctx, dealer, now, now.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Valuation.DailySalesSeries(f.ctx, dealer, now.AddDate(-2, 0, 0), now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReport_ArmaLasTresVistas(t *testing.T) {
	f := newFixture(t)
	f.variant(t, "v1", "filtros", 20)
	b := f.batch(t, "v1", "A", 10, 10, 0)
	_, err := f.svc.Sales.Deduct(f.ctx, deduct("s1", line("v1", 2)))
	require.NoError(t, err)
	_, err = f.svc.Adjustments.Adjust(f.ctx, inventory.AdjustInput{DealerID: dealer, BatchID: b.ID, Delta: d(-1), ReasonCode: "expired"})
	require.NoError(t, err)

	rep, err := f.svc.Valuation.Report(f.ctx, dealer, now.AddDate(0, 0, -6), now)
	require.NoError(t, err)
	require.NotNil(t, rep.Valuation)
	assert.True(t, rep.Valuation.TotalUnits.Equal(d(7)))
	assert.Len(t, rep.SalesSeries, 7)

	byKey := map[string]dto.MovementSummaryRow{}
	for _, r := range rep.MovementSummary {
		byKey[r.MovementType+"/"+r.ReferenceType] = r
	}
	assert.Equal(t, 1, byKey["in/purchase_order"].Count)
	assert.True(t, byKey["in/purchase_order"].Units.Equal(d(10)))
	assert.Equal(t, 1, byKey["out/sale"].Count)
	assert.Equal(t, 1, byKey["out/adjustment"].Count)
}

// cacheSpy registra las llamadas al cache de valoración; Set respeta la generación como redis.
type cacheSpy struct {
	stored      map[string]*dto.ValuationReport
	generation  map[string]int64
	invalidated []string
}

func newCacheSpy() *cacheSpy {
	return &cacheSpy{stored: map[string]*dto.ValuationReport{}, generation: map[string]int64{}}
}

func (c *cacheSpy) Get(_ context.Context, dealerID string) (*dto.ValuationReport, int64, bool, error) {
	r, ok := c.stored[dealerID]
	return r, c.generation[dealerID], ok, nil
}

func (c *cacheSpy) Set(_ context.Context, dealerID string, gen int64, r *dto.ValuationReport, _ time.Duration) error {
	if gen == c.generation[dealerID] {
		c.stored[dealerID] = r
	}
	return nil
}

func (c *cacheSpy) Invalidate(_ context.Context, dealerID string) error {
	delete(c.stored, dealerID)
	c.generation[dealerID]++
	c.invalidated = append(c.invalidated, dealerID)
	return nil
}

// racingValuation ejecuta onRead en medio de la consulta (escritura concurrente).
type racingValuation struct {
	repository.ValuationRepository
	onRead func()
}

func (r *racingValuation) ValuationByCategory(ctx context.Context, dealerID string) ([]repository.CategoryValuation, error) {
	rows, err := r.ValuationRepository.ValuationByCategory(ctx, dealerID)
	if r.onRead != nil {
		r.onRead()
	}
	return rows, err
}

func TestValuation_CacheSeInvalidaTrasEscrituras(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()
	spy := newCacheSpy()
	svc := inventory.NewServices(inventory.Deps{
		Tx: store, Batches: repos.Batches, Movements: repos.Movements, PurchaseOrders: repos.PurchaseOrders,
		Valuation: store.Valuation(), Cache: spy, CacheTTL: time.Minute,
		Clock: func() time.Time { return now },
	})
	f := &fixture{ctx: context.Background(), store: store, repos: repos, svc: svc}
	f.variant(t, "v1", "filtros", 20)
	f.batch(t, "v1", "A", 5, 10, 1)

	first, err := svc.Valuation.Valuation(f.ctx, dealer)
	require.NoError(t, err)
	require.Contains(t, spy.stored, dealer)

	cached, err := svc.Valuation.Valuation(f.ctx, dealer)
	require.NoError(t, err)
	assert.Same(t, first, cached)

	_, err = svc.Sales.Deduct(f.ctx, deduct("s1", line("v1", 1)))
	require.NoError(t, err)
	assert.Equal(t, []string{dealer}, spy.invalidated)

	fresh, err := svc.Valuation.Valuation(f.ctx, dealer)
	require.NoError(t, err)
	assert.True(t, fresh.TotalUnits.Equal(d(4)))
}

func TestValuation_EscrituraDuranteLecturaNoQuedaEnCache(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()
	spy := newCacheSpy()
	racing := &racingValuation{ValuationRepository: store.Valuation()}
	svc := inventory.NewServices(inventory.Deps{
		Tx: store, Batches: repos.Batches, Movements: repos.Movements, PurchaseOrders: repos.PurchaseOrders,
		Valuation: racing, Cache: spy, CacheTTL: time.Minute,
		Clock: func() time.Time { return now },
	})
	f := &fixture{ctx: context.Background(), store: store, repos: repos, svc: svc}
	f.variant(t, "v1", "filtros", 20)
	f.batch(t, "v1", "A", 5, 10, 1)

	racing.onRead = func() {
		_, err := svc.Sales.Deduct(f.ctx, deduct("s1", line("v1", 2)))
		require.NoError(t, err)
	}
	stale, err := svc.Valuation.Valuation(f.ctx, dealer)
	require.NoError(t, err)
	assert.True(t, stale.TotalUnits.Equal(d(5)))
	assert.NotContains(t, spy.stored, dealer)

	racing.onRead = nil
	fresh, err := svc.Valuation.Valuation(f.ctx, dealer)
	require.NoError(t, err)
	assert.True(t, fresh.TotalUnits.Equal(d(3)))
	assert.Contains(t, spy.stored, dealer)
}
