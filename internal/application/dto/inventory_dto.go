package dto

import (
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Modos de ajuste de stock.
const (
	AdjustAdd    = "add"
	AdjustRemove = "remove"
	AdjustSet    = "set"
)

// AdjustStockRequest body para POST /api/items/:id/stock.
// add: entrada (Rate = costo unitario; ReferenceType purchase recalcula el costo promedio).
// remove: salida al costo actual. set: conteo físico, la diferencia queda como corrección.
type AdjustStockRequest struct {
	ItemID        string          `json:"-" validate:"required"`
	Mode          string          `json:"mode" validate:"required,oneof=add remove set"`
	Quantity      decimal.Decimal `json:"quantity" validate:"dgte0"`
	Rate          decimal.Decimal `json:"rate" validate:"dgte0"`
	ReferenceType string          `json:"reference_type,omitempty" validate:"omitempty,oneof=sale purchase return opening correction"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Reason        string          `json:"reason,omitempty" validate:"max=500"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID            string          `json:"id"`
	ItemID        string          `json:"item_id"`
	Direction     string          `json:"direction"`
	Quantity      decimal.Decimal `json:"quantity"`
	Rate          decimal.Decimal `json:"rate"`
	TotalValue    decimal.Decimal `json:"total_value"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Note          string          `json:"note,omitempty"`
	StockAfter    decimal.Decimal `json:"stock_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToMovementResponses mapea movimientos a la respuesta.
func ToMovementResponses(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementResponse{
			ID:            m.ID,
			ItemID:        m.ItemID,
			Direction:     string(m.Direction),
			Quantity:      m.Quantity,
			Rate:          m.Rate,
			TotalValue:    m.TotalValue,
			ReferenceType: string(m.ReferenceType),
			ReferenceID:   m.ReferenceID,
			Note:          m.Note,
			StockAfter:    m.StockAfter,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out
}

// ValuationResponse valorización del inventario activo.
type ValuationResponse struct {
	ItemCount  int             `json:"item_count"`
	TotalUnits decimal.Decimal `json:"total_units"`
	CostValue  decimal.Decimal `json:"cost_value"`
	SaleValue  decimal.Decimal `json:"sale_value"`
}

// StockCheckResponse conciliación del stock de un ítem contra su ledger.
type StockCheckResponse struct {
	ItemID     string          `json:"item_id"`
	Cached     decimal.Decimal `json:"cached"`
	Recomputed decimal.Decimal `json:"recomputed"`
	Delta      decimal.Decimal `json:"delta"`
	Movements  int             `json:"movements"`
	Consistent bool            `json:"consistent"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un ítem en o bajo su stock mínimo.
type ReplenishmentSuggestionDTO struct {
	ItemID             string          `json:"item_id"`
	SKU                string          `json:"sku"`
	Name               string          `json:"name"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	MinStock           decimal.Decimal `json:"min_stock"`
	TargetStock        decimal.Decimal `json:"target_stock"`         // max_stock, o min_stock * 1.5 si no hay máximo
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // TargetStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo promedio ponderado
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	GrossMarginPct     decimal.Decimal `json:"gross_margin_pct"`     // (precio - costo) / precio
	Priority           int             `json:"priority"`             // 1 = más urgente
}
