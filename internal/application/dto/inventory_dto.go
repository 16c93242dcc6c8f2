package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// ReceiveLineRequest línea recibida de una orden de compra (ya validada por el importador).
type ReceiveLineRequest struct {
	LineID     string          `json:"line_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	BatchLabel string          `json:"batch_label,omitempty" validate:"max=64"`
}

// ReceiveRequest body para POST /api/inventory/receipts.
type ReceiveRequest struct {
	PurchaseOrderID string               `json:"purchase_order_id" validate:"required"`
	ReceivedDate    *time.Time           `json:"received_date,omitempty"`
	ReceiptKey      string               `json:"receipt_key,omitempty" validate:"max=128"`
	Lines           []ReceiveLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// AdjustRequest body para POST /api/inventory/adjustments.
type AdjustRequest struct {
	BatchID        string          `json:"batch_id" validate:"required"`
	Delta          decimal.Decimal `json:"delta"`
	ReasonCode     string          `json:"reason_code" validate:"required,max=32"`
	Notes          string          `json:"notes,omitempty" validate:"max=500"`
	IdempotencyKey string          `json:"idempotency_key,omitempty" validate:"max=128"`
}

// SaleLineRequest línea del carrito (POS o facturación de servicio).
type SaleLineRequest struct {
	VariantID string          `json:"variant_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// DeductRequest body para POST /api/inventory/deductions.
type DeductRequest struct {
	Reference       string            `json:"reference" validate:"required,max=128"` // id de venta o sub-orden, clave de idempotencia
	ReferenceNumber string            `json:"reference_number,omitempty" validate:"max=64"`
	Lines           []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReverseRequest body opcional para POST /api/inventory/deductions/:reference/reversal.
type ReverseRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// PeriodRequest rango de fechas para reportes (YYYY-MM-DD).
type PeriodRequest struct {
	From string `query:"from"`
	To   string `query:"to"`
}

// MovementListRequest filtros para GET /api/inventory/movements.
type MovementListRequest struct {
	VariantID string `query:"variant_id"`
	BatchID   string `query:"batch_id"`
	From      string `query:"from"`
	To        string `query:"to"`
	PageRequest
}

// ── Responses ─────────────────────────────────────────────────────────────────

// BatchDTO lote de inventario.
type BatchDTO struct {
	ID              string          `json:"id"`
	VariantID       string          `json:"variant_id"`
	ProductID       string          `json:"product_id"`
	BatchNumber     string          `json:"batch_number"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	UnitCostPrice   decimal.Decimal `json:"unit_cost_price"`
	ReceivedDate    time.Time       `json:"received_date"`
	SourceType      string          `json:"source_type"`
	SourceReference *string         `json:"source_reference,omitempty"`
}

// MovementDTO registro del log de movimientos.
type MovementDTO struct {
	ID              string          `json:"id"`
	VariantID       string          `json:"variant_id"`
	ProductID       string          `json:"product_id"`
	BatchID         *string         `json:"batch_id,omitempty"`
	MovementType    string          `json:"movement_type"`
	QuantityBefore  decimal.Decimal `json:"quantity_before"`
	QuantityChange  decimal.Decimal `json:"quantity_change"`
	QuantityAfter   decimal.Decimal `json:"quantity_after"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     string          `json:"reference_id"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalValue      decimal.Decimal `json:"total_value"`
	PerformedBy     string          `json:"performed_by"`
	MovementDate    time.Time       `json:"movement_date"`
	Reason          string          `json:"reason,omitempty"`
}

// ReceiptLineResult resultado por línea de una recepción (GRN).
type ReceiptLineResult struct {
	LineID     string `json:"line_id"`
	OK         bool   `json:"ok"`
	Skipped    bool   `json:"skipped,omitempty"`
	Replayed   bool   `json:"replayed,omitempty"`
	BatchID    string `json:"batch_id,omitempty"`
	MovementID string `json:"movement_id,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
}

// ReceiptResponse resultado de POST /api/inventory/receipts.
type ReceiptResponse struct {
	PurchaseOrderID string              `json:"purchase_order_id"`
	POStatus        string              `json:"po_status"`
	Lines           []ReceiptLineResult `json:"lines"`
}

// LineCostDTO costo de la mercancía vendida por línea.
type LineCostDTO struct {
	VariantID       string          `json:"variant_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	CostOfGoods     decimal.Decimal `json:"cost_of_goods"`
	AverageUnitCost decimal.Decimal `json:"average_unit_cost"`
}

// DeductionResponse resultado de una deducción o reversa de venta.
type DeductionResponse struct {
	Reference   string          `json:"reference"`
	CostOfGoods decimal.Decimal `json:"cost_of_goods"`
	Lines       []LineCostDTO   `json:"lines"`
	Movements   []MovementDTO   `json:"movements"`
	Replayed    bool            `json:"replayed"`
}

// CategoryValuationDTO valoración por categoría.
type CategoryValuationDTO struct {
	Category string          `json:"category"`
	Units    decimal.Decimal `json:"units"`
	Cost     decimal.Decimal `json:"cost"`
	Retail   decimal.Decimal `json:"retail"`
}

// ValuationReport valoración del stock de un dealer (costo y precio de venta).
type ValuationReport struct {
	DealerID    string                 `json:"dealer_id"`
	TotalUnits  decimal.Decimal        `json:"total_units"`
	TotalCost   decimal.Decimal        `json:"total_cost"`
	TotalRetail decimal.Decimal        `json:"total_retail"`
	ByCategory  []CategoryValuationDTO `json:"by_category"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// DailySalesPoint punto de la serie diaria de ventas.
type DailySalesPoint struct {
	Date   string          `json:"date"` // YYYY-MM-DD
	Units  decimal.Decimal `json:"units"`
	Amount decimal.Decimal `json:"amount"`
	Cost   decimal.Decimal `json:"cost"`
}

// MovementSummaryRow totales del período por tipo de movimiento y referencia.
type MovementSummaryRow struct {
	MovementType  string          `json:"movement_type"`
	ReferenceType string          `json:"reference_type"`
	Count         int             `json:"count"`
	Units         decimal.Decimal `json:"units"`
	Value         decimal.Decimal `json:"value"`
}

// InventoryReport agrupa valoración, serie de ventas y resumen de movimientos.
type InventoryReport struct {
	Valuation       *ValuationReport     `json:"valuation"`
	SalesSeries     []DailySalesPoint    `json:"sales_series"`
	MovementSummary []MovementSummaryRow `json:"movement_summary"`
}

// DriftDTO variante con descuadre entre agregado y lotes.
type DriftDTO struct {
	VariantID     string          `json:"variant_id"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	BatchTotal    decimal.Decimal `json:"batch_total"`
}
