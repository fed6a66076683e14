package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PartyRepository define el puerto de persistencia para Party (clientes y proveedores).
type PartyRepository interface {
	Create(ctx context.Context, party *entity.Party) error
	GetByID(ctx context.Context, id string) (*entity.Party, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Party, error)
	Update(ctx context.Context, party *entity.Party) error
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) error
	List(ctx context.Context, partyType entity.PartyType, limit, offset int) ([]*entity.Party, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}
