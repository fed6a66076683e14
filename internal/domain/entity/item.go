package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un producto del inventario con su stock actual.
// CurrentStock solo cambia a través del ledger de movimientos; CostPrice se recalcula
// como promedio ponderado en las compras.
type Item struct {
	ID           string
	SKU          string // único entre ítems activos
	Name         string
	Unit         string
	CostPrice    decimal.Decimal
	SalePrice    decimal.Decimal
	CurrentStock decimal.Decimal
	MinStock     decimal.Decimal
	MaxStock     decimal.Decimal
	CategoryID   string // vacío si no tiene categoría
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lifecycle    Lifecycle
}

// StockStatus clasificación del nivel de stock de un ítem.
type StockStatus string

const (
	StockOK    StockStatus = "ok"
	StockLow   StockStatus = "low"
	StockEmpty StockStatus = "out"
)

// StockStatus bajo stock: 0 < current_stock <= min_stock; agotado: current_stock == 0.
func (i *Item) StockStatus() StockStatus {
	switch {
	case i.CurrentStock.IsZero():
		return StockEmpty
	case i.CurrentStock.IsPositive() && i.CurrentStock.LessThanOrEqual(i.MinStock):
		return StockLow
	default:
		return StockOK
	}
}

// ItemFilter filtro para listados de ítems activos.
type ItemFilter struct {
	Search     string // coincidencia por nombre o SKU (no es búsqueda full-text)
	CategoryID string
	Limit      int
	Offset     int
}

// Valuation agregados de valorización del inventario activo.
type Valuation struct {
	ItemCount  int
	TotalUnits decimal.Decimal
	CostValue  decimal.Decimal // Σ stock × costo
	SaleValue  decimal.Decimal // Σ stock × precio de venta
}

// StockCheck resultado de reproducir el ledger de un ítem contra su stock actual.
type StockCheck struct {
	ItemID     string
	Cached     decimal.Decimal // current_stock almacenado
	Recomputed decimal.Decimal // saldo reproducido desde los movimientos
	Movements  int
	Delta      decimal.Decimal // Cached - Recomputed
}

// Consistent indica que el stock almacenado coincide con el ledger.
func (c StockCheck) Consistent() bool { return c.Delta.IsZero() }
