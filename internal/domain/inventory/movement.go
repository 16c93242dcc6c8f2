package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ApplyMovement calcula la cantidad resultante de aplicar un movimiento in/out sobre before.
// Una salida mayor que el stock devuelve *domain.StockError (nunca se permite quedar en negativo).
func ApplyMovement(before decimal.Decimal, typ entity.MovementType, magnitude decimal.Decimal) (decimal.Decimal, error) {
	if !magnitude.IsPositive() {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	switch typ {
	case entity.MovementTypeIn:
		return before.Add(magnitude), nil
	case entity.MovementTypeOut:
		if before.LessThan(magnitude) {
			return decimal.Zero, &domain.StockError{Requested: magnitude, Available: before}
		}
		return before.Sub(magnitude), nil
	}
	return decimal.Zero, domain.ErrInvalidInput
}

// Signed devuelve la magnitud con el signo del tipo de movimiento.
func Signed(typ entity.MovementType, magnitude decimal.Decimal) decimal.Decimal {
	if typ == entity.MovementTypeOut {
		return magnitude.Neg()
	}
	return magnitude
}
