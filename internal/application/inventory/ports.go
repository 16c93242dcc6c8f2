package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción del ledger.
type Repos struct {
	Variants       repository.VariantRepository
	Batches        repository.BatchRepository
	Movements      repository.MovementRepository
	PurchaseOrders repository.PurchaseOrderRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso. Los conflictos de concurrencia del
// motor (serialización, deadlock, índice de idempotencia) se devuelven como domain.ErrConcurrentModification.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}

// Metrics puerto de observabilidad del ledger.
type Metrics interface {
	ObserveOperation(op, result string, d time.Duration)
	IncRetry(op string)
}

// NoopMetrics descarta las métricas (tests, herramientas).
type NoopMetrics struct{}

func (NoopMetrics) ObserveOperation(string, string, time.Duration) {}
func (NoopMetrics) IncRetry(string)                                {}

// ValuationCache cache opcional de la valoración por dealer.
// Get devuelve además la generación vigente del dealer ((nil, gen, false, nil) sin entrada).
// Set solo guarda si la generación sigue siendo la leída; Invalidate la incrementa.
type ValuationCache interface {
	Get(ctx context.Context, dealerID string) (*dto.ValuationReport, int64, bool, error)
	Set(ctx context.Context, dealerID string, generation int64, report *dto.ValuationReport, ttl time.Duration) error
	Invalidate(ctx context.Context, dealerID string) error
}

// NoopValuationCache nunca guarda nada.
type NoopValuationCache struct{}

func (NoopValuationCache) Get(context.Context, string) (*dto.ValuationReport, int64, bool, error) {
	return nil, 0, false, nil
}
func (NoopValuationCache) Set(context.Context, string, int64, *dto.ValuationReport, time.Duration) error {
	return nil
}
func (NoopValuationCache) Invalidate(context.Context, string) error { return nil }
