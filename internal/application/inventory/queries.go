package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ListItems ítems activos filtrados por nombre/SKU y categoría.
func (l *Ledger) ListItems(ctx context.Context, filter entity.ItemFilter) ([]*entity.Item, error) {
	var items []*entity.Item
	err := l.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		items, err = r.Items.List(ctx, filter)
		return err
	})
	return items, err
}

// GetItem ítem activo por id.
func (l *Ledger) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	var item *entity.Item
	err := l.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		item, err = r.Items.GetByID(ctx, id)
		return err
	})
	return item, err
}

// LowStock ítems con 0 < current_stock <= min_stock.
func (l *Ledger) LowStock(ctx context.Context) ([]*entity.Item, error) {
	return l.byStatus(ctx, entity.StockLow)
}

// OutOfStock ítems con current_stock == 0.
func (l *Ledger) OutOfStock(ctx context.Context) ([]*entity.Item, error) {
	return l.byStatus(ctx, entity.StockEmpty)
}

func (l *Ledger) byStatus(ctx context.Context, status entity.StockStatus) ([]*entity.Item, error) {
	var all []*entity.Item
	err := l.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		all, err = r.Items.ListActive(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Item, 0)
	for _, it := range all {
		if it.StockStatus() == status {
			out = append(out, it)
		}
	}
	return out, nil
}

// Valuation Σ stock × costo y Σ stock × precio de venta sobre los ítems activos.
func (l *Ledger) Valuation(ctx context.Context) (entity.Valuation, error) {
	var items []*entity.Item
	err := l.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		items, err = r.Items.ListActive(ctx)
		return err
	})
	if err != nil {
		return entity.Valuation{}, err
	}
	return Valuate(items), nil
}

// Valuate agregados de valorización de una lista de ítems.
func Valuate(items []*entity.Item) entity.Valuation {
	v := entity.Valuation{ItemCount: len(items)}
	for _, it := range items {
		v.TotalUnits = v.TotalUnits.Add(it.CurrentStock)
		v.CostValue = v.CostValue.Add(it.CurrentStock.Mul(it.CostPrice))
		v.SaleValue = v.SaleValue.Add(it.CurrentStock.Mul(it.SalePrice))
	}
	v.CostValue = v.CostValue.Round(4)
	v.SaleValue = v.SaleValue.Round(4)
	return v
}

// Movements historial del ítem, más recientes primero.
func (l *Ledger) Movements(ctx context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	err := l.tx.Read(ctx, func(r repository.Repos) error {
		if _, err := r.Items.GetByID(ctx, itemID); err != nil {
			return err
		}
		var err error
		list, err = r.Movements.ListByItem(ctx, itemID, limit, offset)
		return err
	})
	return list, err
}

// ReconcileStock reproduce el ledger del ítem y lo compara con current_stock. No corrige nada.
func (l *Ledger) ReconcileStock(ctx context.Context, itemID string) (entity.StockCheck, error) {
	var check entity.StockCheck
	err := l.tx.Read(ctx, func(r repository.Repos) error {
		item, err := r.Items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		movs, err := r.Movements.ListByItemAsc(ctx, itemID)
		if err != nil {
			return err
		}
		check = Replay(item, movs)
		return nil
	})
	return check, err
}

// Replay saldo reproducido desde cero aplicando los movimientos en orden.
func Replay(item *entity.Item, movs []*entity.StockMovement) entity.StockCheck {
	balance := decimal.Zero
	for _, m := range movs {
		balance = balance.Add(m.SignedQuantity(balance))
	}
	return entity.StockCheck{
		ItemID:     item.ID,
		Cached:     item.CurrentStock,
		Recomputed: balance,
		Movements:  len(movs),
		Delta:      item.CurrentStock.Sub(balance),
	}
}
