package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.ValuationRepository = (*valuationRepo)(nil)

type valuationRepo struct {
	a access
}

func (r *valuationRepo) ValuationByCategory(_ context.Context, dealerID string) ([]repository.CategoryValuation, error) {
	byCat := map[string]*repository.CategoryValuation{}
	err := r.a.read(func(st *state) error {
		for _, b := range st.batches {
			if b.DealerID != dealerID || !b.Available() {
				continue
			}
			v := st.variants[b.VariantID]
			row, ok := byCat[v.Category]
			if !ok {
				row = &repository.CategoryValuation{Category: v.Category, Units: decimal.Zero, Cost: decimal.Zero, Retail: decimal.Zero}
				byCat[v.Category] = row
			}
			row.Units = row.Units.Add(b.CurrentQuantity)
			row.Cost = row.Cost.Add(b.Value())
			row.Retail = row.Retail.Add(b.CurrentQuantity.Mul(v.RetailPrice))
		}
		return nil
	})
	out := make([]repository.CategoryValuation, 0, len(byCat))
	for _, row := range byCat {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, err
}

// DailySales salidas por venta menos sus reversas, agrupadas por día UTC en [from, to).
func (r *valuationRepo) DailySales(_ context.Context, dealerID string, from, to time.Time) ([]repository.DailySales, error) {
	byDay := map[time.Time]*repository.DailySales{}
	err := r.a.read(func(st *state) error {
		for i := range st.movements {
			m := &st.movements[i]
			if m.DealerID != dealerID || m.ReferenceType != entity.ReferenceSale ||
				m.MovementDate.Before(from) || !m.MovementDate.Before(to) {
				continue
			}
			sign := decimal.NewFromInt(1)
			if m.Type == entity.MovementTypeIn {
				sign = sign.Neg()
			}
			d := m.MovementDate.UTC()
			day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			row, ok := byDay[day]
			if !ok {
				row = &repository.DailySales{Date: day, Units: decimal.Zero, Amount: decimal.Zero, Cost: decimal.Zero}
				byDay[day] = row
			}
			units := m.QuantityChange.Mul(sign)
			row.Units = row.Units.Add(units)
			row.Amount = row.Amount.Add(units.Mul(st.variants[m.VariantID].RetailPrice))
			row.Cost = row.Cost.Add(m.TotalValue.Mul(sign))
		}
		return nil
	})
	out := make([]repository.DailySales, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, err
}

func (r *valuationRepo) MovementSummary(_ context.Context, dealerID string, from, to time.Time) ([]repository.MovementSummary, error) {
	type key struct {
		t entity.MovementType
		r entity.ReferenceType
	}
	groups := map[key]*repository.MovementSummary{}
	err := r.a.read(func(st *state) error {
		for i := range st.movements {
			m := &st.movements[i]
			if m.DealerID != dealerID || m.MovementDate.Before(from) || !m.MovementDate.Before(to) {
				continue
			}
			k := key{m.Type, m.ReferenceType}
			row, ok := groups[k]
			if !ok {
				row = &repository.MovementSummary{Type: m.Type, ReferenceType: m.ReferenceType, Units: decimal.Zero, Value: decimal.Zero}
				groups[k] = row
			}
			row.Count++
			row.Units = row.Units.Add(m.QuantityChange)
			row.Value = row.Value.Add(m.TotalValue)
		}
		return nil
	})
	out := make([]repository.MovementSummary, 0, len(groups))
	for _, row := range groups {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ReferenceType < out[j].ReferenceType
	})
	return out, err
}

func (r *valuationRepo) ConservationDrift(_ context.Context, dealerID string) ([]repository.VariantDrift, error) {
	var out []repository.VariantDrift
	err := r.a.read(func(st *state) error {
		totals := map[string]decimal.Decimal{}
		for _, b := range st.batches {
			if b.DealerID == dealerID {
				totals[b.VariantID] = totals[b.VariantID].Add(b.CurrentQuantity)
			}
		}
		for _, v := range st.variants {
			if v.DealerID != dealerID {
				continue
			}
			if total := totals[v.ID]; !total.Equal(v.StockQuantity) {
				out = append(out, repository.VariantDrift{VariantID: v.ID, StockQuantity: v.StockQuantity, BatchTotal: total})
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out, err
}
