package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// defaultReportDays ventana de los reportes cuando no llegan from/to.
const defaultReportDays = 30

// reportRenderer genera el PDF del reporte de inventario (infrastructure/pdf).
type reportRenderer interface {
	GenerateInventoryReportPDF(ctx context.Context, report *dto.InventoryReport) ([]byte, error)
}

// InventoryHandler maneja las peticiones HTTP del ledger de inventario (protegido).
type InventoryHandler struct {
	svc *inventory.Services
	pdf reportRenderer
	now func() time.Time
	log *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(svc *inventory.Services, pdf reportRenderer, now func() time.Time, log *logger.Logger) *InventoryHandler {
	if now == nil {
		now = time.Now
	}
	return &InventoryHandler{svc: svc, pdf: pdf, now: now, log: log.Component("http")}
}

// identity devuelve dealer y usuario del token; false si faltan.
func identity(c *fiber.Ctx) (dealerID, userID string, ok bool) {
	dealerID, userID = GetDealerID(c), GetUserID(c)
	return dealerID, userID, dealerID != "" && userID != ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

// parseBody decodifica y valida el JSON del request. Responde 400 y devuelve false si falla.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, badRequest(c, "INVALID_BODY", "cuerpo inválido", nil)
	}
	if details, ok := validateStruct(out); !ok {
		return false, badRequest(c, "VALIDATION", "datos inválidos", details)
	}
	return true, nil
}

// Receive godoc
// @Summary      Recibir mercancía de una orden de compra
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "purchase_order_id y líneas recibidas"
// @Success      200   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	dealerID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReceiveRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	input := inventory.ReceiveInput{
		DealerID:        dealerID,
		PurchaseOrderID: in.PurchaseOrderID,
		ReceiptKey:      in.ReceiptKey,
		Actor:           userID,
		Lines:           make([]inventory.ReceiveLine, 0, len(in.Lines)),
	}
	if in.ReceivedDate != nil {
		input.ReceivedDate = *in.ReceivedDate
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, inventory.ReceiveLine{LineID: l.LineID, Quantity: l.Quantity, BatchLabel: l.BatchLabel})
	}
	res, err := h.svc.Receiving.Receive(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

// Adjust godoc
// @Summary      Ajuste manual de stock sobre un lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "batch_id, delta con signo, reason_code"
// @Success      201   {object}  dto.MovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	dealerID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.AdjustRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	mov, err := h.svc.Adjustments.Adjust(c.UserContext(), inventory.AdjustInput{
		DealerID:       dealerID,
		BatchID:        in.BatchID,
		Delta:          in.Delta,
		ReasonCode:     entity.AdjustmentReason(in.ReasonCode),
		Notes:          in.Notes,
		Actor:          userID,
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementDTOs([]*entity.Movement{mov})[0])
}

// Deduct godoc
// @Summary      Descontar stock por una venta (FIFO)
// @Description  Idempotente por reference: repetir la petición devuelve el resultado original con replayed=true.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DeductRequest  true  "reference y líneas"
// @Success      201   {object}  dto.DeductionResponse
// @Success      200   {object}  dto.DeductionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/deductions [post]
func (h *InventoryHandler) Deduct(c *fiber.Ctx) error {
	dealerID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.DeductRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	lines := make([]inventory.SaleLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.SaleLine{VariantID: l.VariantID, Quantity: l.Quantity})
	}
	res, err := h.svc.Sales.Deduct(c.UserContext(), inventory.DeductInput{
		DealerID:  dealerID,
		Reference: in.Reference,
		Number:    in.ReferenceNumber,
		Lines:     lines,
		Actor:     userID,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusCreated
	if res.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(res)
}

// Reverse godoc
// @Summary      Reversar la deducción de una venta
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        reference  path  string              true   "referencia de la venta"
// @Param        body       body  dto.ReverseRequest  false  "motivo"
// @Success      201   {object}  dto.DeductionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/deductions/{reference}/reversal [post]
func (h *InventoryHandler) Reverse(c *fiber.Ctx) error {
	dealerID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReverseRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &in); !ok {
			return err
		}
	}
	res, err := h.svc.Sales.Reverse(c.UserContext(), inventory.ReverseInput{
		DealerID:  dealerID,
		Reference: c.Params("reference"),
		Actor:     userID,
		Reason:    in.Reason,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusCreated
	if res.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(res)
}

// ListBatches godoc
// @Summary      Lotes de una variante en orden FIFO
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "variant id"
// @Success      200  {array}  dto.BatchDTO
// @Router       /api/inventory/variants/{id}/batches [get]
func (h *InventoryHandler) ListBatches(c *fiber.Ctx) error {
	dealerID, _, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.svc.Ledger.ListBatches(c.UserContext(), dealerID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "batches": list})
}

// ListMovements godoc
// @Summary      Log de movimientos (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        variant_id  query  string  false  "variante"
// @Param        batch_id    query  string  false  "lote"
// @Param        from        query  string  false  "YYYY-MM-DD"
// @Param        to          query  string  false  "YYYY-MM-DD (inclusive)"
// @Param        limit       query  int     false  "máx 500"
// @Param        offset      query  int     false  "desplazamiento"
// @Success      200  {array}  dto.MovementDTO
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	dealerID, _, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var q dto.MovementListRequest
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos", nil)
	}
	if details, ok := validateStruct(&q); !ok {
		return badRequest(c, "VALIDATION", "datos inválidos", details)
	}
	q.DefaultPage()
	f := repository.MovementFilter{
		DealerID:  dealerID,
		VariantID: q.VariantID,
		BatchID:   q.BatchID,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if q.From != "" {
		from, err := inventory.ParseDay(q.From)
		if err != nil {
			return writeError(c, h.log, err)
		}
		f.From = &from
	}
	if q.To != "" {
		to, err := inventory.ParseDay(q.To)
		if err != nil {
			return writeError(c, h.log, err)
		}
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}
	list, err := h.svc.Ledger.ListMovements(c.UserContext(), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"movements": list,
		"page":      dto.PageResponse{Limit: f.Limit, Offset: f.Offset},
	})
}

// Valuation godoc
// @Summary      Valoración del stock a costo y a precio de venta
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ValuationReport
// @Router       /api/inventory/valuation [get]
func (h *InventoryHandler) Valuation(c *fiber.Ctx) error {
	dealerID, _, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	report, err := h.svc.Valuation.Valuation(c.UserContext(), dealerID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(report)
}

// ValuationPDF godoc
// @Summary      Reporte de inventario en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to    query  string  false  "YYYY-MM-DD"
// @Success      200
// @Router       /api/inventory/valuation/pdf [get]
func (h *InventoryHandler) ValuationPDF(c *fiber.Ctx) error {
	dealerID, _, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	from, to, err := h.period(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	report, err := h.svc.Valuation.Report(c.UserContext(), dealerID, from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	doc, err := h.pdf.GenerateInventoryReportPDF(c.UserContext(), report)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="inventario-%s.pdf"`, to.Format("20060102")))
	return c.Send(doc)
}

// SalesSeries godoc
// @Summary      Serie diaria de ventas (unidades, venta y costo)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to    query  string  false  "YYYY-MM-DD"
// @Success      200  {array}  dto.DailySalesPoint
// @Router       /api/inventory/reports/sales-series [get]
func (h *InventoryHandler) SalesSeries(c *fiber.Ctx) error {
	dealerID, _, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	from, to, err := h.period(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	series, err := h.svc.Valuation.DailySalesSeries(c.UserContext(), dealerID, from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(series)
}

// MovementSummary godoc
// @Summary      Resumen de movimientos por tipo y referencia
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to    query  string  false  "YYYY-MM-DD"
// @Success      200  {array}  dto.MovementSummaryRow
// @Router       /api/inventory/reports/movements [get]
func (h *InventoryHandler) MovementSummary(c *fiber.Ctx) error {
	dealerID, _, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	from, to, err := h.period(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	rows, err := h.svc.Valuation.MovementSummary(c.UserContext(), dealerID, from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(rows)
}

// Reconciliation godoc
// @Summary      Variantes cuyo agregado no cuadra con sus lotes
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/reconciliation [get]
func (h *InventoryHandler) Reconciliation(c *fiber.Ctx) error {
	dealerID, _, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	drift, err := h.svc.Ledger.VerifyConservation(c.UserContext(), dealerID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if len(drift) > 0 {
		h.log.Warn().Str("dealer_id", dealerID).Int("variants", len(drift)).Msg("descuadre entre variantes y lotes")
	}
	return c.JSON(fiber.Map{"balanced": len(drift) == 0, "drift": drift})
}

// period lee from/to (YYYY-MM-DD); por defecto los últimos defaultReportDays días.
func (h *InventoryHandler) period(c *fiber.Ctx) (time.Time, time.Time, error) {
	var q dto.PeriodRequest
	if err := c.QueryParser(&q); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("query: %w", domain.ErrInvalidInput)
	}
	to := h.now().UTC()
	if q.To != "" {
		t, err := inventory.ParseDay(q.To)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}
	from := to.AddDate(0, 0, -(defaultReportDays - 1))
	if q.From != "" {
		f, err := inventory.ParseDay(q.From)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = f
	}
	return from, to, nil
}
