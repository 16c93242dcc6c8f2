// Package memory implementa el ledger en memoria para modo desarrollo y tests.
// Cada transacción toma el lock de escritura del store y trabaja sobre una copia;
// el commit reemplaza el estado y el rollback la descarta.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

type state struct {
	variants  map[string]entity.ProductVariant
	batches   map[string]entity.InventoryBatch
	movements []entity.Movement
	orders    map[string]entity.PurchaseOrder
}

func newState() *state {
	return &state{
		variants: make(map[string]entity.ProductVariant),
		batches:  make(map[string]entity.InventoryBatch),
		orders:   make(map[string]entity.PurchaseOrder),
	}
}

func (s *state) clone() *state {
	c := &state{
		variants: make(map[string]entity.ProductVariant, len(s.variants)),
		batches:  make(map[string]entity.InventoryBatch, len(s.batches)),
		orders:   make(map[string]entity.PurchaseOrder, len(s.orders)),
		// Log append-only: el cap fijo obliga a copiar al primer append.
		movements: s.movements[:len(s.movements):len(s.movements)],
	}
	for k, v := range s.variants {
		c.variants[k] = v
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.orders {
		v.Lines = append([]entity.PurchaseOrderLine(nil), v.Lines...)
		c.orders[k] = v
	}
	return c
}

// access abstrae si el repositorio opera dentro de una tx (estado ya bloqueado) o sobre el store.
type access interface {
	read(fn func(*state) error) error
	write(fn func(*state) error) error
}

type txAccess struct{ st *state }

func (a txAccess) read(fn func(*state) error) error  { return fn(a.st) }
func (a txAccess) write(fn func(*state) error) error { return fn(a.st) }

type storeAccess struct{ s *Store }

func (a storeAccess) read(fn func(*state) error) error {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	return fn(a.s.st)
}

func (a storeAccess) write(fn func(*state) error) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return fn(a.s.st)
}

// Store almacenamiento en memoria del ledger.
type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

// Ensure Store implementa inventory.TxRunner.
var _ inventory.TxRunner = (*Store)(nil)

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// Run ejecuta fn serializada contra una copia del estado; solo se publica si fn devuelve nil.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(ctx, reposFor(txAccess{st: work}, s.now)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Repos repositorios fuera de transacción (lecturas y carga inicial).
func (s *Store) Repos() inventory.Repos {
	return reposFor(storeAccess{s: s}, s.now)
}

// Valuation repositorio de lectura para reportes.
func (s *Store) Valuation() repository.ValuationRepository {
	return &valuationRepo{a: storeAccess{s: s}}
}

func reposFor(a access, now func() time.Time) inventory.Repos {
	return inventory.Repos{
		Variants:       &variantRepo{a: a, now: now},
		Batches:        &batchRepo{a: a, now: now},
		Movements:      &movementRepo{a: a},
		PurchaseOrders: &purchaseOrderRepo{a: a, now: now},
	}
}

// NewSeeded store de demostración con dos variantes y una orden de compra pendiente.
func NewSeeded(dealerID string) *Store {
	s := NewStore()
	now := time.Now().UTC()
	for _, v := range []entity.ProductVariant{
		{ID: "var-oil-5w30", ProductID: "prod-oil", SKU: "OIL-5W30-1L", Name: "Aceite 5W30 1L", Category: "lubricantes", RetailPrice: decimal.NewFromInt(45000)},
		{ID: "var-filter-a", ProductID: "prod-filter", SKU: "FLT-A-001", Name: "Filtro de aceite A", Category: "filtros", RetailPrice: decimal.NewFromInt(28000)},
	} {
		v.DealerID = dealerID
		v.StockQuantity = decimal.Zero
		v.CreatedAt, v.UpdatedAt = now, now
		s.st.variants[v.ID] = v
	}
	s.st.orders["po-demo-1"] = entity.PurchaseOrder{
		ID: "po-demo-1", DealerID: dealerID, Number: "OC-0001", Status: entity.PurchaseOrderPending,
		Lines: []entity.PurchaseOrderLine{
			{ID: "pol-demo-1", PurchaseOrderID: "po-demo-1", ProductID: "prod-oil", VariantID: "var-oil-5w30",
				OrderedQuantity: decimal.NewFromInt(24), ReceivedQuantity: decimal.Zero, UnitCost: decimal.NewFromInt(30000)},
			{ID: "pol-demo-2", PurchaseOrderID: "po-demo-1", ProductID: "prod-filter", VariantID: "var-filter-a",
				OrderedQuantity: decimal.NewFromInt(10), ReceivedQuantity: decimal.Zero, UnitCost: decimal.NewFromInt(15000)},
		},
		CreatedAt: now, UpdatedAt: now,
	}
	return s
}
