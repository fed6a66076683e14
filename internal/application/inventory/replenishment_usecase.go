package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ReplenishmentUseCase genera la lista de reposición a partir del stock actual.
// Prioriza los ítems agotados y, entre iguales, los de mayor margen bruto.
type ReplenishmentUseCase struct {
	tx TxRunner
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(tx TxRunner) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{tx: tx}
}

// GenerateReplenishmentList devuelve los ítems en o bajo su stock mínimo con la cantidad
// sugerida de pedido y un ranking de prioridad.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	var items []*entity.Item
	err := uc.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		items, err = r.Items.ListActive(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return Suggest(items), nil
}

// Suggest calcula las sugerencias sin tocar el almacenamiento.
func Suggest(items []*entity.Item) []dto.ReplenishmentSuggestionDTO {
	hundred := decimal.NewFromInt(100)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0)
	for _, item := range items {
		if item.StockStatus() == entity.StockOK {
			continue
		}
		target := item.MaxStock
		if !target.GreaterThan(item.MinStock) {
			// Sin máximo configurado
			target = item.MinStock.Mul(decimal.NewFromFloat(1.5))
		}
		suggestedQty := target.Sub(item.CurrentStock)
		if suggestedQty.LessThanOrEqual(decimal.Zero) {
			suggestedQty = decimal.Zero
		}

		var marginPct decimal.Decimal
		if item.SalePrice.GreaterThan(decimal.Zero) {
			marginPct = item.SalePrice.Sub(item.CostPrice).Div(item.SalePrice).Mul(hundred).Round(2)
		}

		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ItemID:             item.ID,
			SKU:                item.SKU,
			Name:               item.Name,
			CurrentStock:       item.CurrentStock,
			MinStock:           item.MinStock,
			TargetStock:        target,
			SuggestedOrderQty:  suggestedQty,
			UnitCost:           item.CostPrice,
			EstimatedOrderCost: suggestedQty.Mul(item.CostPrice).Round(4),
			GrossMarginPct:     marginPct,
		})
	}

	// Agotados primero, luego mayor margen, luego mayor déficit bajo el mínimo.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.CurrentStock.IsZero() != b.CurrentStock.IsZero() {
			return a.CurrentStock.IsZero()
		}
		if !a.GrossMarginPct.Equal(b.GrossMarginPct) {
			return a.GrossMarginPct.GreaterThan(b.GrossMarginPct)
		}
		defA := a.MinStock.Sub(a.CurrentStock)
		defB := b.MinStock.Sub(b.CurrentStock)
		return defA.GreaterThan(defB)
	})

	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions
}

