package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Services  *inventory.Services
	PDF       reportRenderer
	Metrics   httpObserver // opcional
	JWTSecret string
	Logger    *logger.Logger
	Now       func() time.Time
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	if deps.Metrics != nil {
		app.Use(MetricsMiddleware(deps.Metrics))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	admins := RequireRole(RoleDealerAdmin, RoleSuperAdmin)

	inv := protected.Group("/inventory")
	h := NewInventoryHandler(deps.Services, deps.PDF, deps.Now, log)

	// Escrituras
	inv.Post("/receipts", admins, h.Receive)
	inv.Post("/adjustments", admins, h.Adjust)
	inv.Post("/deductions", RequireRole(RoleCashier, RoleServiceAdmin, RoleDealerAdmin, RoleSuperAdmin), h.Deduct)
	inv.Post("/deductions/:reference/reversal", RequireRole(RoleServiceAdmin, RoleDealerAdmin, RoleSuperAdmin), h.Reverse)

	// Consultas
	inv.Get("/variants/:id/batches", h.ListBatches)
	inv.Get("/movements", h.ListMovements)

	// Reportes
	inv.Get("/valuation", admins, h.Valuation)
	inv.Get("/valuation/pdf", admins, h.ValuationPDF)
	inv.Get("/reports/sales-series", admins, h.SalesSeries)
	inv.Get("/reports/movements", admins, h.MovementSummary)
	inv.Get("/reconciliation", RequireRole(RoleSuperAdmin), h.Reconciliation)
}
