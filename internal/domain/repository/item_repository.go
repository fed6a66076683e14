package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ItemRepository define el puerto de persistencia para Item (DIP).
// UpdateStock solo debe invocarlo el ledger de inventario, junto con su movimiento.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// GetForUpdate bloquea la fila cuando el motor lo soporta (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Item, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	UpdateStock(ctx context.Context, id string, stock decimal.Decimal, at time.Time) error
	UpdateCost(ctx context.Context, id string, cost decimal.Decimal, at time.Time) error
	List(ctx context.Context, filter entity.ItemFilter) ([]*entity.Item, error)
	ListActive(ctx context.Context) ([]*entity.Item, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}
