package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de recepción de una orden de compra.
const (
	PurchaseOrderPending  = "pending"
	PurchaseOrderPartial  = "partial"
	PurchaseOrderReceived = "received"
)

// PurchaseOrder entidad externa; el ledger solo actualiza estado y contadores de recepción.
type PurchaseOrder struct {
	ID        string
	DealerID  string
	Number    string
	Status    string
	Lines     []PurchaseOrderLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PurchaseOrderLine línea de la orden; ReceivedQuantity nunca supera OrderedQuantity.
type PurchaseOrderLine struct {
	ID               string
	PurchaseOrderID  string
	ProductID        string
	VariantID        string
	OrderedQuantity  decimal.Decimal
	ReceivedQuantity decimal.Decimal
	UnitCost         decimal.Decimal
}

// Pending cantidad aún por recibir.
func (l *PurchaseOrderLine) Pending() decimal.Decimal {
	p := l.OrderedQuantity.Sub(l.ReceivedQuantity)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// DeriveStatus calcula el estado a partir de los contadores por línea.
func DeriveStatus(lines []PurchaseOrderLine) string {
	if len(lines) == 0 {
		return PurchaseOrderPending
	}
	for _, l := range lines {
		if l.ReceivedQuantity.LessThan(l.OrderedQuantity) {
			return PurchaseOrderPartial
		}
	}
	return PurchaseOrderReceived
}
