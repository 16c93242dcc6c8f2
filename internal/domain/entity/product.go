package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductVariant unidad vendible (producto + atributos) dentro del catálogo de un dealer.
// StockQuantity es un agregado cacheado: siempre igual a la suma de CurrentQuantity de sus lotes.
// Solo el MovementRecorder lo modifica.
type ProductVariant struct {
	ID            string
	DealerID      string
	ProductID     string
	SKU           string
	Name          string
	Category      string
	RetailPrice   decimal.Decimal
	StockQuantity decimal.Decimal
	Version       int64 // bloqueo optimista sobre el agregado
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
