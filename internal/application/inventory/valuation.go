package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const dateLayout = "2006-01-02"

// maxSeriesDays límite del rango de la serie diaria.
const maxSeriesDays = 366

// ValuationEngine lecturas de valoración y reportes. No toma bloqueos: el resultado
// puede quedar levemente desfasado respecto a escrituras concurrentes.
type ValuationEngine struct {
	repo  repository.ValuationRepository
	cache ValuationCache
	ttl   time.Duration
	now   func() time.Time
	log   *logger.Logger
}

// NewValuationEngine construye el motor de valoración. ttl <= 0 deshabilita el cache.
func NewValuationEngine(repo repository.ValuationRepository, cache ValuationCache, ttl time.Duration, now func() time.Time, log *logger.Logger) *ValuationEngine {
	if cache == nil {
		cache = NoopValuationCache{}
	}
	if now == nil {
		now = time.Now
	}
	return &ValuationEngine{repo: repo, cache: cache, ttl: ttl, now: now, log: log.Component("valuation")}
}

// Valuation valor del stock remanente del dealer a costo y a precio de venta, por categoría.
func (e *ValuationEngine) Valuation(ctx context.Context, dealerID string) (*dto.ValuationReport, error) {
	if dealerID == "" {
		return nil, domain.ErrInvalidInput
	}
	// La generación se lee antes de consultar: si una escritura invalida mientras tanto, no se guarda.
	var generation int64
	cacheable := e.ttl > 0
	if cacheable {
		cached, gen, ok, err := e.cache.Get(ctx, dealerID)
		switch {
		case err != nil:
			cacheable = false
			e.log.Warn().Err(err).Str("dealer_id", dealerID).Msg("cache de valoración no disponible")
		case ok:
			return cached, nil
		}
		generation = gen
	}

	rows, err := e.repo.ValuationByCategory(ctx, dealerID)
	if err != nil {
		return nil, fmt.Errorf("valoración por categoría: %w", err)
	}
	report := &dto.ValuationReport{
		DealerID:    dealerID,
		TotalUnits:  decimal.Zero,
		TotalCost:   decimal.Zero,
		TotalRetail: decimal.Zero,
		ByCategory:  make([]dto.CategoryValuationDTO, 0, len(rows)),
		GeneratedAt: e.now().UTC(),
	}
	for _, r := range rows {
		report.TotalUnits = report.TotalUnits.Add(r.Units)
		report.TotalCost = report.TotalCost.Add(r.Cost)
		report.TotalRetail = report.TotalRetail.Add(r.Retail)
		report.ByCategory = append(report.ByCategory, dto.CategoryValuationDTO{
			Category: r.Category, Units: r.Units, Cost: r.Cost, Retail: r.Retail,
		})
	}

	if cacheable {
		if err := e.cache.Set(ctx, dealerID, generation, report, e.ttl); err != nil {
			e.log.Warn().Err(err).Str("dealer_id", dealerID).Msg("no se pudo guardar la valoración en cache")
		}
	}
	return report, nil
}

// DailySalesSeries ventas netas por día en [from, to] (fechas inclusive); los días sin ventas van en cero.
func (e *ValuationEngine) DailySalesSeries(ctx context.Context, dealerID string, from, to time.Time) ([]dto.DailySalesPoint, error) {
	start, end, err := dayRange(dealerID, from, to)
	if err != nil {
		return nil, err
	}
	rows, err := e.repo.DailySales(ctx, dealerID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("serie de ventas: %w", err)
	}
	byDay := make(map[string]repository.DailySales, len(rows))
	for _, r := range rows {
		byDay[r.Date.UTC().Format(dateLayout)] = r
	}

	out := make([]dto.DailySalesPoint, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		p := dto.DailySalesPoint{Date: key, Units: decimal.Zero, Amount: decimal.Zero, Cost: decimal.Zero}
		if r, ok := byDay[key]; ok {
			p.Units, p.Amount, p.Cost = r.Units, r.Amount, r.Cost
		}
		out = append(out, p)
	}
	return out, nil
}

// MovementSummary totales del período por tipo de movimiento y tipo de referencia.
func (e *ValuationEngine) MovementSummary(ctx context.Context, dealerID string, from, to time.Time) ([]dto.MovementSummaryRow, error) {
	start, end, err := dayRange(dealerID, from, to)
	if err != nil {
		return nil, err
	}
	rows, err := e.repo.MovementSummary(ctx, dealerID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("resumen de movimientos: %w", err)
	}
	out := make([]dto.MovementSummaryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.MovementSummaryRow{
			MovementType:  string(r.Type),
			ReferenceType: string(r.ReferenceType),
			Count:         r.Count,
			Units:         r.Units,
			Value:         r.Value,
		})
	}
	return out, nil
}

// Report arma valoración, serie y resumen en paralelo.
func (e *ValuationEngine) Report(ctx context.Context, dealerID string, from, to time.Time) (*dto.InventoryReport, error) {
	if _, _, err := dayRange(dealerID, from, to); err != nil {
		return nil, err
	}
	report := &dto.InventoryReport{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := e.Valuation(gctx, dealerID)
		report.Valuation = v
		return err
	})
	g.Go(func() error {
		s, err := e.DailySalesSeries(gctx, dealerID, from, to)
		report.SalesSeries = s
		return err
	})
	g.Go(func() error {
		m, err := e.MovementSummary(gctx, dealerID, from, to)
		report.MovementSummary = m
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// Invalidate descarta la valoración en cache del dealer.
func (e *ValuationEngine) Invalidate(ctx context.Context, dealerID string) error {
	return e.cache.Invalidate(ctx, dealerID)
}

// dayRange normaliza [from, to] a días UTC y valida el rango.
func dayRange(dealerID string, from, to time.Time) (time.Time, time.Time, error) {
	if dealerID == "" || from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, domain.ErrInvalidInput
	}
	start := truncateDay(from)
	end := truncateDay(to)
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("from posterior a to: %w", domain.ErrInvalidInput)
	}
	if end.Sub(start) > maxSeriesDays*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("rango mayor a %d días: %w", maxSeriesDays, domain.ErrInvalidInput)
	}
	return start, end, nil
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay interpreta YYYY-MM-DD en UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha %q: %w", s, domain.ErrInvalidInput)
	}
	return t, nil
}
