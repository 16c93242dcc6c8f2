package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// CategoryValuation valoración agregada de una categoría.
type CategoryValuation struct {
	Category string
	Units    decimal.Decimal
	Cost     decimal.Decimal // Σ current_quantity × unit_cost_price
	Retail   decimal.Decimal // Σ current_quantity × retail_price
}

// DailySales ventas netas (salidas menos reversas) de un día.
type DailySales struct {
	Date   time.Time
	Units  decimal.Decimal
	Amount decimal.Decimal // valor a precio de venta
	Cost   decimal.Decimal // COGS
}

// MovementSummary totales de movimientos por tipo y referencia.
type MovementSummary struct {
	Type          entity.MovementType
	ReferenceType entity.ReferenceType
	Count         int
	Units         decimal.Decimal
	Value         decimal.Decimal
}

// VariantDrift variante cuyo agregado no coincide con la suma de sus lotes.
type VariantDrift struct {
	VariantID     string
	StockQuantity decimal.Decimal
	BatchTotal    decimal.Decimal
}

// ValuationRepository consultas de solo lectura sobre el estado de lotes y movimientos.
// No bloquea filas: lectura eventualmente consistente para reportes.
type ValuationRepository interface {
	ValuationByCategory(ctx context.Context, dealerID string) ([]CategoryValuation, error)
	DailySales(ctx context.Context, dealerID string, from, to time.Time) ([]DailySales, error)
	MovementSummary(ctx context.Context, dealerID string, from, to time.Time) ([]MovementSummary, error)
	ConservationDrift(ctx context.Context, dealerID string) ([]VariantDrift, error)
}
