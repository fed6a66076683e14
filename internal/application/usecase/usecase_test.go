package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/Inventario-ledger/internal/application/billing"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/sqlstore"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/sqlstore/sqlstoretest"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup(t *testing.T) (*sqlstore.TxRunner, *inventory.Ledger) {
	t.Helper()
	_, tx := sqlstoretest.Open(t)
	return tx, inventory.NewLedger(tx, nil, logger.Nop())
}

func TestItemUseCase_CreateConStockInicial(t *testing.T) {
	tx, ledger := setup(t)
	uc := usecase.NewItemUseCase(tx, ledger)
	ctx := context.Background()

	item, err := uc.Create(ctx, dto.CreateItemRequest{SKU: " CAFE-1 ", Name: "Café", CostPrice: d("8"), SalePrice: d("12"), OpeningStock: d("25")})
	require.NoError(t, err)
	assert.Equal(t, "CAFE-1", item.SKU)
	assert.Equal(t, "unit", item.Unit)
	assert.True(t, item.CurrentStock.Equal(d("25")))

	movs, err := ledger.Movements(ctx, item.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.ReferenceOpening, movs[0].ReferenceType)
	assert.True(t, movs[0].Rate.Equal(d("8")))

	_, err = uc.Create(ctx, dto.CreateItemRequest{SKU: "CAFE-1", Name: "Otro"})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	_, err = uc.Create(ctx, dto.CreateItemRequest{SKU: "X", Name: "X", MinStock: d("10"), MaxStock: d("5")})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = uc.Create(ctx, dto.CreateItemRequest{SKU: "Y", Name: "Y", CategoryID: "no-existe"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestItemUseCase_UpdateNoTocaStockNiCosto(t *testing.T) {
	tx, ledger := setup(t)
	uc := usecase.NewItemUseCase(tx, ledger)
	ctx := context.Background()

	a, err := uc.Create(ctx, dto.CreateItemRequest{SKU: "A", Name: "A", CostPrice: d("5"), OpeningStock: d("3")})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateItemRequest{SKU: "B", Name: "B"})
	require.NoError(t, err)

	name := "Arroz blanco"
	price := d("9.5")
	got, err := uc.Update(ctx, a.ID, dto.UpdateItemRequest{Name: &name, SalePrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Arroz blanco", got.Name)
	assert.True(t, got.CurrentStock.Equal(d("3")))
	assert.True(t, got.CostPrice.Equal(d("5")))

	sku := "B"
	_, err = uc.Update(ctx, a.ID, dto.UpdateItemRequest{SKU: &sku})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	require.NoError(t, uc.Delete(ctx, a.ID))
	_, err = uc.Get(ctx, a.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPartyUseCase_NoSeBorraConSaldo(t *testing.T) {
	tx, _ := setup(t)
	uc := usecase.NewPartyUseCase(tx)
	balances := billing.NewBalanceLedger(tx, logger.Nop())
	ctx := context.Background()

	p, err := uc.Create(ctx, dto.CreatePartyRequest{Name: "Distribuidora", Type: "supplier", Email: "compras@example.com"})
	require.NoError(t, err)
	assert.True(t, p.OutstandingBalance.IsZero())

	_, err = balances.AdjustBalance(ctx, p.ID, d("40"))
	require.NoError(t, err)
	err = uc.Delete(ctx, p.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	_, err = balances.AdjustBalance(ctx, p.ID, d("-40"))
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, p.ID))
	_, err = uc.Get(ctx, p.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = uc.Create(ctx, dto.CreatePartyRequest{Name: "X", Type: "customer", Email: "no-es-correo"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestPartyUseCase_ListPorTipo(t *testing.T) {
	tx, _ := setup(t)
	uc := usecase.NewPartyUseCase(tx)
	ctx := context.Background()
	for _, in := range []dto.CreatePartyRequest{
		{Name: "C1", Type: "customer"}, {Name: "C2", Type: "customer"}, {Name: "S1", Type: "supplier"},
	} {
		_, err := uc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := uc.List(ctx, "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	suppliers, err := uc.List(ctx, "supplier", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "S1", suppliers[0].Name)

	_, err = uc.List(ctx, "socio", dto.PageRequest{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCategoryYNotificaciones(t *testing.T) {
	tx, ledger := setup(t)
	ctx := context.Background()
	categories := usecase.NewCategoryUseCase(tx)
	notifications := usecase.NewNotificationUseCase(tx, logger.Nop())

	c, err := categories.Create(ctx, dto.CreateCategoryRequest{Name: " Granos "})
	require.NoError(t, err)
	assert.Equal(t, "Granos", c.Name)

	item, err := usecase.NewItemUseCase(tx, ledger).Create(ctx, dto.CreateItemRequest{
		SKU: "G1", Name: "Lenteja", CategoryID: c.ID, OpeningStock: d("6"), MinStock: d("5"),
	})
	require.NoError(t, err)

	var ch inventory.Change
	require.NoError(t, tx.Run(ctx, func(r repository.Repos) error {
		var err error
		ch, err = ledger.RemoveStockInTx(ctx, r, item.ID, d("6"), entity.Reference{Type: entity.ReferenceCorrection, ID: item.ID})
		return err
	}))
	require.NoError(t, notifications.EmitStockAlerts(ctx, []inventory.Change{ch}))

	list, err := notifications.ListUnread(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.NotificationOutOfStock, list[0].Kind)

	require.NoError(t, notifications.MarkRead(ctx, list[0].ID))
	list, err = notifications.ListUnread(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	cats, err := categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.NoError(t, categories.Delete(ctx, c.ID))
}
