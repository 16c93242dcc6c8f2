package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound                  = errors.New("recurso no encontrado")
	ErrInvalidInput              = errors.New("entrada inválida")
	ErrUnauthorized              = errors.New("no autorizado")
	ErrForbidden                 = errors.New("acceso denegado")
	ErrInvalidQuantity           = errors.New("cantidad inválida")
	ErrInsufficientStock         = errors.New("stock insuficiente")
	ErrBatchNotFound             = errors.New("lote no encontrado")
	ErrVariantNotFound           = errors.New("variante no encontrada")
	ErrPurchaseOrderNotFound     = errors.New("orden de compra no encontrada")
	ErrPurchaseOrderLineNotFound = errors.New("línea de orden de compra no encontrada")
	ErrSaleNotFound              = errors.New("venta sin movimientos registrados")
	ErrConcurrentModification    = errors.New("conflicto de concurrencia, reintente")
	ErrOverReceipt               = errors.New("la recepción supera la cantidad ordenada")
	ErrDuplicateBatchLabel       = errors.New("número de lote duplicado para la variante")
	ErrInvalidReasonCode         = errors.New("código de motivo inválido")
)

// StockError detalla un faltante de stock sobre una variante o un lote concreto.
type StockError struct {
	VariantID string
	BatchID   string // vacío cuando el faltante es agregado de la variante
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *StockError) Error() string {
	if e.BatchID != "" {
		return fmt.Sprintf("stock insuficiente en lote %s: solicitado %s, disponible %s",
			e.BatchID, e.Requested.String(), e.Available.String())
	}
	return fmt.Sprintf("stock insuficiente en variante %s: solicitado %s, disponible %s",
		e.VariantID, e.Requested.String(), e.Available.String())
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// LineError identifica la línea de una operación multi-línea (venta o recepción) que falló.
type LineError struct {
	Line      int // índice 0-based dentro del request
	LineID    string
	VariantID string
	Err       error
}

func (e *LineError) Error() string {
	if e.LineID != "" {
		return fmt.Sprintf("línea %d (%s): %v", e.Line+1, e.LineID, e.Err)
	}
	return fmt.Sprintf("línea %d (variante %s): %v", e.Line+1, e.VariantID, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ErrorCode código estable (snake_case) para respuestas HTTP y resultados por línea.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInvalidReasonCode):
		return "invalid_reason_code"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrOverReceipt):
		return "over_receipt"
	case errors.Is(err, ErrDuplicateBatchLabel):
		return "duplicate_batch_label"
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, ErrBatchNotFound):
		return "batch_not_found"
	case errors.Is(err, ErrVariantNotFound):
		return "variant_not_found"
	case errors.Is(err, ErrPurchaseOrderNotFound):
		return "purchase_order_not_found"
	case errors.Is(err, ErrPurchaseOrderLineNotFound):
		return "purchase_order_line_not_found"
	case errors.Is(err, ErrSaleNotFound):
		return "sale_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	}
	return "internal_error"
}
