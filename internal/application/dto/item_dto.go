package dto

import (
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para crear un ítem. OpeningStock se registra como movimiento de apertura.
type CreateItemRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Unit         string          `json:"unit" validate:"omitempty,max=20"`
	CostPrice    decimal.Decimal `json:"cost_price" validate:"dgte0"`
	SalePrice    decimal.Decimal `json:"sale_price" validate:"dgte0"`
	OpeningStock decimal.Decimal `json:"opening_stock" validate:"dgte0"`
	MinStock     decimal.Decimal `json:"min_stock" validate:"dgte0"`
	MaxStock     decimal.Decimal `json:"max_stock" validate:"dgte0"`
	CategoryID   string          `json:"category_id,omitempty"`
}

// UpdateItemRequest entrada para actualizar un ítem (sin costo ni stock).
type UpdateItemRequest struct {
	SKU        *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Name       *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Unit       *string          `json:"unit" validate:"omitempty,max=20"`
	SalePrice  *decimal.Decimal `json:"sale_price"`
	MinStock   *decimal.Decimal `json:"min_stock"`
	MaxStock   *decimal.Decimal `json:"max_stock"`
	CategoryID *string          `json:"category_id"`
}

// ItemResponse salida de un ítem.
type ItemResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	MaxStock     decimal.Decimal `json:"max_stock"`
	StockStatus  string          `json:"stock_status"`
	CategoryID   string          `json:"category_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// ToItemResponse mapea la entidad a la respuesta.
func ToItemResponse(it *entity.Item) ItemResponse {
	return ItemResponse{
		ID:           it.ID,
		SKU:          it.SKU,
		Name:         it.Name,
		Unit:         it.Unit,
		CostPrice:    it.CostPrice,
		SalePrice:    it.SalePrice,
		CurrentStock: it.CurrentStock,
		MinStock:     it.MinStock,
		MaxStock:     it.MaxStock,
		StockStatus:  string(it.StockStatus()),
		CategoryID:   it.CategoryID,
		CreatedAt:    it.CreatedAt,
		UpdatedAt:    it.UpdatedAt,
	}
}

// ToItemResponses mapea una lista de ítems.
func ToItemResponses(items []*entity.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ToItemResponse(it))
	}
	return out
}
