package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchSource origen de un lote.
type BatchSource string

const (
	BatchSourcePurchaseOrder BatchSource = "purchase_order"
	BatchSourceReturn        BatchSource = "return"
)

// InventoryBatch lote homogéneo en costo de una variante.
// CurrentQuantity solo cambia vía MovementRecorder y nunca es negativo.
type InventoryBatch struct {
	ID              string
	DealerID        string
	ProductID       string
	VariantID       string
	BatchNumber     string // único por dealer+variante
	InitialQuantity decimal.Decimal
	CurrentQuantity decimal.Decimal
	UnitCostPrice   decimal.Decimal
	ReceivedDate    time.Time
	SourceType      BatchSource
	SourceReference *string // id de la orden de compra o de la venta devuelta
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Available indica si el lote participa en la asignación FIFO.
func (b *InventoryBatch) Available() bool {
	return b.CurrentQuantity.IsPositive()
}

// Value costo del stock remanente del lote.
func (b *InventoryBatch) Value() decimal.Decimal {
	return b.CurrentQuantity.Mul(b.UnitCostPrice)
}
