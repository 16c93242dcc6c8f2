package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// statusFor traduce el error de dominio a status HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidReasonCode):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrBatchNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrPurchaseOrderNotFound),
		errors.Is(err, domain.ErrPurchaseOrderLineNotFound),
		errors.Is(err, domain.ErrSaleNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrOverReceipt),
		errors.Is(err, domain.ErrDuplicateBatchLabel),
		errors.Is(err, domain.ErrConcurrentModification):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// lineDetail arma el detalle de la línea fallida (y del faltante, si lo hay).
func lineDetail(err error) *dto.LineErrorDetail {
	var lerr *domain.LineError
	if !errors.As(err, &lerr) {
		return nil
	}
	d := &dto.LineErrorDetail{Line: lerr.Line, LineID: lerr.LineID, VariantID: lerr.VariantID}
	var serr *domain.StockError
	if errors.As(err, &serr) {
		d.BatchID = serr.BatchID
		d.Requested = serr.Requested.String()
		d.Available = serr.Available.String()
	}
	return d
}

// writeError responde con dto.ErrorResponse. Los 500 no exponen el detalle interno.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status := statusFor(err)
	resp := dto.ErrorResponse{Code: strings.ToUpper(domain.ErrorCode(err)), Message: err.Error()}
	if d := lineDetail(err); d != nil {
		resp.Details = d
	}
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		resp.Message = "error interno"
	}
	return c.Status(status).JSON(resp)
}

func badRequest(c *fiber.Ctx, code, msg string, details any) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg, Details: details})
}
