package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateLine(ctx context.Context, line *entity.InvoiceLineItem) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	GetLines(ctx context.Context, invoiceID string) ([]*entity.InvoiceLineItem, error)
	UpdateStatus(ctx context.Context, id string, status entity.InvoiceStatus, at time.Time) error
	MarkCancelled(ctx context.Context, id string, at time.Time) error
	ListByParty(ctx context.Context, partyID string) ([]*entity.Invoice, error)
	// ListDue facturas Created/PartiallyPaid con due_date anterior a asOf.
	ListDue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error)
	NextNumber(ctx context.Context, kind entity.InvoiceKind) (string, error)
	// CountOpenByItem facturas activas no anuladas con alguna línea del ítem.
	CountOpenByItem(ctx context.Context, itemID string) (int, error)
}
