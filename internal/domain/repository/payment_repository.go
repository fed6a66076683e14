package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PaymentRepository define el puerto de persistencia para abonos.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	ListByParty(ctx context.Context, partyID string) ([]*entity.Payment, error)
	SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error)
}
