package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementFilter criterios para listar el log de movimientos.
type MovementFilter struct {
	DealerID      string
	VariantID     string
	BatchID       string
	ReferenceType entity.ReferenceType
	ReferenceID   string
	Type          entity.MovementType
	From, To      *time.Time
	Limit, Offset int
}

// MovementRepository puerto del log append-only: no existe Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, m *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// FindByReference devuelve el movimiento previo de la misma (lote, referencia, tipo) o nil.
	FindByReference(ctx context.Context, batchID string, refType entity.ReferenceType, refID string, typ entity.MovementType) (*entity.Movement, error)
	// ListByReference movimientos de una referencia de negocio en orden de registro.
	ListByReference(ctx context.Context, dealerID string, refType entity.ReferenceType, refID string, typ entity.MovementType) ([]*entity.Movement, error)
	List(ctx context.Context, f MovementFilter) ([]*entity.Movement, error)
}
