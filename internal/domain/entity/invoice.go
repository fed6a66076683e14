package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estados del ciclo de vida de una factura.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "Draft"         // guardada sin efecto en stock ni saldo
	InvoiceCreated       InvoiceStatus = "Created"       // stock y saldo aplicados
	InvoicePaid          InvoiceStatus = "Paid"          // pagada por completo
	InvoicePartiallyPaid InvoiceStatus = "PartiallyPaid" // con abonos parciales
	InvoiceOverdue       InvoiceStatus = "Overdue"       // vencida con saldo pendiente
	InvoiceCancelled     InvoiceStatus = "Cancelled"     // terminal
)

// InvoiceKind venta a cliente o compra a proveedor.
type InvoiceKind string

const (
	InvoiceSale     InvoiceKind = "sale"
	InvoicePurchase InvoiceKind = "purchase"
)

// Invoice cabecera de la factura. Total = Subtotal - DiscountAmount + TaxAmount, siempre
// recalculado desde las líneas.
type Invoice struct {
	ID             string
	Number         string // único entre facturas activas
	Kind           InvoiceKind
	PartyID        string
	Subtotal       decimal.Decimal
	DiscountPct    decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxPct         decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	Status         InvoiceStatus
	IssuedAt       time.Time
	DueDate        *time.Time
	CancelledAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Lifecycle      Lifecycle
	Lines          []*InvoiceLineItem
}

// AffectsBalance indica si la factura cuenta para el saldo del tercero.
func (inv *Invoice) AffectsBalance() bool {
	return inv.Lifecycle.IsActive() && inv.Status != InvoiceDraft && inv.Status != InvoiceCancelled
}
