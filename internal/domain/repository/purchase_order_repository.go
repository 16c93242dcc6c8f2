package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// PurchaseOrderRepository puerto para la orden de compra (entidad externa).
// El ledger solo incrementa received_quantity y recalcula el estado.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	// GetByID devuelve la orden con sus líneas leídas en ese momento.
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	GetLineForUpdate(ctx context.Context, purchaseOrderID, lineID string) (*entity.PurchaseOrderLine, error)
	IncrementReceived(ctx context.Context, lineID string, qty decimal.Decimal) error
	UpdateStatus(ctx context.Context, id, status string) error
}
