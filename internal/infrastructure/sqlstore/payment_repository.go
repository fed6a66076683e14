package sqlstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

var paymentColumns = []string{
	"id", "party_id", "invoice_id", "amount", "paid_at", "note", "created_at", "deleted_at",
}

// PaymentRepo implementación del puerto PaymentRepository.
type PaymentRepo struct {
	q Querier
	d Dialect
}

// NewPaymentRepository construye el adaptador (pool o tx).
func NewPaymentRepository(q Querier, d Dialect) *PaymentRepo {
	return &PaymentRepo{q: q, d: d}
}

// Create persiste un abono.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	stmt := r.d.Builder().Insert("payments").Columns(paymentColumns...).Values(
		p.ID, p.PartyID, nullString(p.InvoiceID), p.Amount, utc(p.PaidAt), p.Note,
		utc(p.CreatedAt), nullTime(p.Lifecycle.DeletedAtPtr()),
	)
	_, err := exec(ctx, r.q, "insert payment", Keyed{ID: p.ID, Stmt: stmt})
	return err
}

// ListByParty abonos activos del tercero.
func (r *PaymentRepo) ListByParty(ctx context.Context, partyID string) ([]*entity.Payment, error) {
	return r.list(ctx, "list payments by party", sq.Eq{"party_id": partyID})
}

// SumByInvoice total abonado a la factura. La suma se hace en Go para ser exacta en ambos motores.
func (r *PaymentRepo) SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	list, err := r.list(ctx, "sum payments by invoice", sq.Eq{"invoice_id": invoiceID})
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, p := range list {
		sum = sum.Add(p.Amount)
	}
	return sum, nil
}

func (r *PaymentRepo) list(ctx context.Context, op string, where sq.Eq) ([]*entity.Payment, error) {
	b := whereActive(r.d.Builder().Select(paymentColumns...).From("payments").Where(where)).
		OrderBy("paid_at ASC", "id ASC")
	rows, err := queryRows(ctx, r.q, op, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var (
			p         entity.Payment
			invoiceID sql.NullString
			amount    decimal.NullDecimal
			deletedAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.PartyID, &invoiceID, &amount, &p.PaidAt, &p.Note,
			&p.CreatedAt, &deletedAt); err != nil {
			return nil, classify("scan payment", err)
		}
		p.InvoiceID = invoiceID.String
		p.Amount = dec(amount)
		p.Lifecycle = entity.LifecycleFrom(timePtr(deletedAt))
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return list, nil
}
