package inventory

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// Deps dependencias del ledger. Los repositorios sueltos se usan para lecturas fuera de tx.
type Deps struct {
	Tx             TxRunner
	Batches        repository.BatchRepository
	Movements      repository.MovementRepository
	PurchaseOrders repository.PurchaseOrderRepository
	Valuation      repository.ValuationRepository
	Cache          ValuationCache
	CacheTTL       time.Duration
	Retry          RetryPolicy
	Metrics        Metrics
	Logger         *logger.Logger
	Clock          func() time.Time
}

// Services casos de uso del ledger listos para los handlers.
type Services struct {
	Recorder    *MovementRecorder
	Ledger      *BatchLedger
	Receiving   *ReceivingService
	Adjustments *AdjustmentService
	Sales       *SaleDeductionService
	Valuation   *ValuationEngine
}

// NewServices cablea los casos de uso sobre un mismo TxRunner.
func NewServices(d Deps) *Services {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Cache == nil {
		d.Cache = NoopValuationCache{}
	}
	if d.Metrics == nil {
		d.Metrics = NoopMetrics{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	exec := newExecutor(d.Tx, d.Retry, d.Metrics, d.Logger.Component("ledger_tx"))
	recorder := NewMovementRecorder(d.Clock)
	ledger := NewBatchLedger(recorder, d.Batches, d.Movements, d.Valuation, d.Clock)
	return &Services{
		Recorder:    recorder,
		Ledger:      ledger,
		Receiving:   NewReceivingService(exec, ledger, d.PurchaseOrders, d.Cache, d.Logger),
		Adjustments: NewAdjustmentService(exec, recorder, d.Cache, d.Logger),
		Sales:       NewSaleDeductionService(exec, ledger, recorder, d.Cache, d.Logger),
		Valuation:   NewValuationEngine(d.Valuation, d.Cache, d.CacheTTL, d.Clock, d.Logger),
	}
}
