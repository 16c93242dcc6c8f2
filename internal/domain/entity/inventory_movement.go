package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del ledger.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeIn         MovementType = "in"         // entrada
	MovementTypeOut        MovementType = "out"        // salida
	MovementTypeAdjustment MovementType = "adjustment" // solo lectura: filas heredadas, el signo se deduce de before/after
)

// ReferenceType origen de negocio de un movimiento.
type ReferenceType string

const (
	ReferencePurchaseOrder ReferenceType = "purchase_order"
	ReferenceSale          ReferenceType = "sale"
	ReferenceAdjustment    ReferenceType = "adjustment"
)

// Valid indica si el tipo de referencia pertenece al conjunto cerrado.
func (r ReferenceType) Valid() bool {
	switch r {
	case ReferencePurchaseOrder, ReferenceSale, ReferenceAdjustment:
		return true
	}
	return false
}

// Movement registro inmutable de un cambio de cantidad sobre un lote.
// Nunca se actualiza ni se borra; las correcciones son movimientos compensatorios.
type Movement struct {
	ID              string
	DealerID        string
	ProductID       string
	VariantID       string
	BatchID         *string
	Type            MovementType
	QuantityBefore  decimal.Decimal
	QuantityChange  decimal.Decimal // magnitud sin signo
	QuantityAfter   decimal.Decimal
	ReferenceType   ReferenceType
	ReferenceID     string
	ReferenceNumber string
	UnitCost        decimal.Decimal
	TotalValue      decimal.Decimal
	PerformedBy     string
	MovementDate    time.Time
	Reason          string
	CreatedAt       time.Time
}

// SignedChange devuelve el cambio con signo según el tipo.
func (m *Movement) SignedChange() decimal.Decimal {
	switch m.Type {
	case MovementTypeOut:
		return m.QuantityChange.Neg()
	case MovementTypeAdjustment:
		return m.QuantityAfter.Sub(m.QuantityBefore)
	}
	return m.QuantityChange
}

// Balanced verifica quantity_after == quantity_before ± quantity_change.
func (m *Movement) Balanced() bool {
	if m.QuantityChange.IsNegative() {
		return false
	}
	if m.Type == MovementTypeAdjustment {
		return m.QuantityAfter.Sub(m.QuantityBefore).Abs().Equal(m.QuantityChange)
	}
	return m.QuantityBefore.Add(m.SignedChange()).Equal(m.QuantityAfter)
}

// BatchRef devuelve el ID del lote o vacío.
func (m *Movement) BatchRef() string {
	if m.BatchID == nil {
		return ""
	}
	return *m.BatchID
}
