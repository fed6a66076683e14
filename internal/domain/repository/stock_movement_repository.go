package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// StockMovementRepository puerto del ledger append-only: solo inserta y consulta.
type StockMovementRepository interface {
	Append(ctx context.Context, movement *entity.StockMovement) error
	ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error)
	// ListByItemAsc todos los movimientos activos del ítem en orden de creación.
	ListByItemAsc(ctx context.Context, itemID string) ([]*entity.StockMovement, error)
	ListByReference(ctx context.Context, refType entity.ReferenceType, refID string) ([]*entity.StockMovement, error)
}
