package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// VariantRepository puerto de persistencia para el agregado de stock por variante.
type VariantRepository interface {
	Create(ctx context.Context, v *entity.ProductVariant) error
	GetByID(ctx context.Context, id string) (*entity.ProductVariant, error)
	// GetForUpdate bloquea la fila de la variante (SELECT FOR UPDATE) dentro de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.ProductVariant, error)
	// ApplyStockDelta suma delta a stock_quantity si la versión coincide con expectedVersion.
	// Devuelve domain.ErrConcurrentModification si otra transacción cambió la fila.
	ApplyStockDelta(ctx context.Context, id string, delta decimal.Decimal, expectedVersion int64) (*entity.ProductVariant, error)
	ListByDealer(ctx context.Context, dealerID string) ([]*entity.ProductVariant, error)
}
