package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceLineItem línea de una factura (ítem, cantidad, precio unitario).
type InvoiceLineItem struct {
	ID        string
	InvoiceID string
	ItemID    string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Total     decimal.Decimal // Quantity * UnitPrice
	CreatedAt time.Time
	Lifecycle Lifecycle
}
