package dto

import (
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest body para POST /api/invoices.
// Kind vacío equivale a venta. Number vacío asigna el siguiente correlativo.
type CreateInvoiceRequest struct {
	PartyID     string               `json:"party_id" validate:"required"`
	Kind        string               `json:"kind" validate:"omitempty,oneof=sale purchase"`
	Number      string               `json:"number,omitempty" validate:"max=50"`
	Lines       []InvoiceLineRequest `json:"lines" validate:"required,min=1,dive"`
	DiscountPct decimal.Decimal      `json:"discount_pct" validate:"dgte0,dlte100"`
	TaxPct      decimal.Decimal      `json:"tax_pct" validate:"dgte0"`
	DueDate     *time.Time           `json:"due_date,omitempty"`
	Draft       bool                 `json:"draft"`
}

// InvoiceLineRequest línea de factura. UnitPrice cero toma el precio del ítem
// (venta: sale_price, compra: cost_price).
type InvoiceLineRequest struct {
	ItemID    string          `json:"item_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"dgt0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"dgte0"`
}

// RecordPaymentRequest body para POST /api/invoices/:id/payments.
type RecordPaymentRequest struct {
	InvoiceID string          `json:"-" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"dgt0"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	Note      string          `json:"note,omitempty" validate:"max=500"`
}

// InvoiceLineResponse línea en la respuesta de factura.
type InvoiceLineResponse struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// InvoiceResponse salida de una factura.
type InvoiceResponse struct {
	ID             string                `json:"id"`
	Number         string                `json:"number"`
	Kind           string                `json:"kind"`
	PartyID        string                `json:"party_id"`
	Status         string                `json:"status"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DiscountPct    decimal.Decimal       `json:"discount_pct"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	TaxPct         decimal.Decimal       `json:"tax_pct"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	Total          decimal.Decimal       `json:"total"`
	IssuedAt       time.Time             `json:"issued_at"`
	DueDate        *time.Time            `json:"due_date,omitempty"`
	CancelledAt    *time.Time            `json:"cancelled_at,omitempty"`
	Lines          []InvoiceLineResponse `json:"lines"`
	Warning        string                `json:"warning,omitempty"` // efecto posterior al commit que falló
}

// ToInvoiceResponse mapea la factura y sus líneas.
func ToInvoiceResponse(inv *entity.Invoice) InvoiceResponse {
	out := InvoiceResponse{
		ID:             inv.ID,
		Number:         inv.Number,
		Kind:           string(inv.Kind),
		PartyID:        inv.PartyID,
		Status:         string(inv.Status),
		Subtotal:       inv.Subtotal,
		DiscountPct:    inv.DiscountPct,
		DiscountAmount: inv.DiscountAmount,
		TaxPct:         inv.TaxPct,
		TaxAmount:      inv.TaxAmount,
		Total:          inv.Total,
		IssuedAt:       inv.IssuedAt,
		DueDate:        inv.DueDate,
		CancelledAt:    inv.CancelledAt,
		Lines:          make([]InvoiceLineResponse, 0, len(inv.Lines)),
	}
	for _, l := range inv.Lines {
		out.Lines = append(out.Lines, InvoiceLineResponse{
			ID:        l.ID,
			ItemID:    l.ItemID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total,
		})
	}
	return out
}

// PaymentResponse abono registrado y estado resultante de la factura.
type PaymentResponse struct {
	ID            string          `json:"id"`
	PartyID       string          `json:"party_id"`
	InvoiceID     string          `json:"invoice_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        time.Time       `json:"paid_at"`
	Note          string          `json:"note,omitempty"`
	InvoiceStatus string          `json:"invoice_status,omitempty"`
}

// ToPaymentResponse mapea el abono.
func ToPaymentResponse(p *entity.Payment, status entity.InvoiceStatus) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		PartyID:       p.PartyID,
		InvoiceID:     p.InvoiceID,
		Amount:        p.Amount,
		PaidAt:        p.PaidAt,
		Note:          p.Note,
		InvoiceStatus: string(status),
	}
}

// BalanceCheckResponse conciliación del saldo de un tercero.
type BalanceCheckResponse struct {
	PartyID    string          `json:"party_id"`
	Cached     decimal.Decimal `json:"cached"`
	Recomputed decimal.Decimal `json:"recomputed"`
	Delta      decimal.Decimal `json:"delta"`
	Consistent bool            `json:"consistent"`
}

// ToBalanceCheckResponse mapea el resultado de la conciliación.
func ToBalanceCheckResponse(c entity.BalanceCheck) BalanceCheckResponse {
	return BalanceCheckResponse{
		PartyID:    c.PartyID,
		Cached:     c.Cached,
		Recomputed: c.Recomputed,
		Delta:      c.Delta,
		Consistent: c.Consistent(),
	}
}
