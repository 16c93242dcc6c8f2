package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	db TxBeginner
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(db TxBeginner) *TxRunner {
	return &TxRunner{db: db}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Fallos de serialización y deadlocks (también en el commit) salen como domain.ErrConcurrentModification.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, NewRepos(tx)); err != nil {
		return asConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", asConflict(err))
	}
	return nil
}

// NewRepos repositorios del ledger sobre un Querier (pool para lecturas, tx para escrituras).
func NewRepos(q Querier) inventory.Repos {
	return inventory.Repos{
		Variants:       NewVariantRepository(q),
		Batches:        NewBatchRepository(q),
		Movements:      NewMovementRepository(q),
		PurchaseOrders: NewPurchaseOrderRepository(q),
	}
}
