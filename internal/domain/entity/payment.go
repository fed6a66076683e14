package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment abono de un tercero, opcionalmente aplicado a una factura.
type Payment struct {
	ID        string
	PartyID   string
	InvoiceID string
	Amount    decimal.Decimal
	PaidAt    time.Time
	Note      string
	CreatedAt time.Time
	Lifecycle Lifecycle
}
