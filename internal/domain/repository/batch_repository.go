package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// BatchRepository puerto de persistencia para lotes de inventario.
type BatchRepository interface {
	// Create inserta el lote; devuelve domain.ErrDuplicateBatchLabel si el número ya existe para la variante.
	Create(ctx context.Context, b *entity.InventoryBatch) error
	GetByID(ctx context.Context, id string) (*entity.InventoryBatch, error)
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryBatch, error)
	ExistsBatchNumber(ctx context.Context, dealerID, variantID, batchNumber string) (bool, error)
	// GetByNumber devuelve domain.ErrBatchNotFound si la etiqueta no existe para la variante.
	GetByNumber(ctx context.Context, dealerID, variantID, batchNumber string) (*entity.InventoryBatch, error)
	UpdateCurrentQuantity(ctx context.Context, id string, qty decimal.Decimal) error
	// ListAvailableForUpdate lotes con stock de la variante, en orden FIFO y bloqueados.
	ListAvailableForUpdate(ctx context.Context, variantID string) ([]*entity.InventoryBatch, error)
	ListByVariant(ctx context.Context, dealerID, variantID string) ([]*entity.InventoryBatch, error)
}
