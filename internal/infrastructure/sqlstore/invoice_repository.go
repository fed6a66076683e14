package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/billing"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

var invoiceColumns = []string{
	"id", "invoice_number", "kind", "party_id", "subtotal", "discount_pct", "discount_amount",
	"tax_pct", "tax_amount", "total", "status", "issued_at", "due_date", "cancelled_at",
	"created_at", "updated_at", "deleted_at",
}

var invoiceLineColumns = []string{
	"id", "invoice_id", "item_id", "quantity", "unit_price", "total", "created_at", "deleted_at",
}

// InvoiceRepo implementación del puerto InvoiceRepository (cabecera + líneas).
type InvoiceRepo struct {
	q Querier
	d Dialect
}

// NewInvoiceRepository construye el adaptador (pool o tx).
func NewInvoiceRepository(q Querier, d Dialect) *InvoiceRepo {
	return &InvoiceRepo{q: q, d: d}
}

// Create persiste la cabecera de la factura. Las líneas van por CreateLine.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	stmt := r.d.Builder().Insert("invoices").Columns(invoiceColumns...).Values(
		inv.ID, inv.Number, string(inv.Kind), inv.PartyID, inv.Subtotal, inv.DiscountPct, inv.DiscountAmount,
		inv.TaxPct, inv.TaxAmount, inv.Total, string(inv.Status), utc(inv.IssuedAt), nullTime(inv.DueDate),
		nullTime(inv.CancelledAt), utc(inv.CreatedAt), utc(inv.UpdatedAt), nullTime(inv.Lifecycle.DeletedAtPtr()),
	)
	_, err := exec(ctx, r.q, "insert invoice", Keyed{ID: inv.ID, Stmt: stmt})
	return err
}

// CreateLine persiste una línea de factura.
func (r *InvoiceRepo) CreateLine(ctx context.Context, line *entity.InvoiceLineItem) error {
	stmt := r.d.Builder().Insert("invoice_items").Columns(invoiceLineColumns...).Values(
		line.ID, line.InvoiceID, line.ItemID, line.Quantity, line.UnitPrice, line.Total,
		utc(line.CreatedAt), nullTime(line.Lifecycle.DeletedAtPtr()),
	)
	_, err := exec(ctx, r.q, "insert invoice line", Keyed{ID: line.ID, Stmt: stmt})
	return err
}

// GetByID obtiene la factura activa con sus líneas.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, "get invoice", whereActive(r.selectInvoices().Where(sq.Eq{"id": id})), id)
}

// GetForUpdate como GetByID pero con bloqueo de fila.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, "get invoice for update", r.d.forUpdate(whereActive(r.selectInvoices().Where(sq.Eq{"id": id}))), id)
}

func (r *InvoiceRepo) getOne(ctx context.Context, op string, b sq.SelectBuilder, id string) (*entity.Invoice, error) {
	row, err := queryRow(ctx, r.q, op, b)
	if err != nil {
		return nil, err
	}
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, notFoundOr("invoice", id, op, err)
	}
	lines, err := r.GetLines(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return inv, nil
}

// GetLines líneas activas de la factura en orden de creación.
func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID string) ([]*entity.InvoiceLineItem, error) {
	b := whereActive(r.d.Builder().Select(invoiceLineColumns...).From("invoice_items").
		Where(sq.Eq{"invoice_id": invoiceID})).OrderBy("created_at ASC", "id ASC")
	rows, err := queryRows(ctx, r.q, "list invoice lines", b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []*entity.InvoiceLineItem
	for rows.Next() {
		var (
			l                 entity.InvoiceLineItem
			qty, price, total decimal.NullDecimal
			deletedAt         sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ItemID, &qty, &price, &total, &l.CreatedAt, &deletedAt); err != nil {
			return nil, classify("scan invoice line", err)
		}
		l.Quantity = dec(qty)
		l.UnitPrice = dec(price)
		l.Total = dec(total)
		l.Lifecycle = entity.LifecycleFrom(timePtr(deletedAt))
		lines = append(lines, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list invoice lines", err)
	}
	return lines, nil
}

// UpdateStatus cambia el estado. La validez de la transición la decide el coordinador.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id string, status entity.InvoiceStatus, at time.Time) error {
	stmt := r.d.Builder().Update("invoices").
		Set("status", string(status)).
		Set("updated_at", utc(at)).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	return r.mustAffect(ctx, "update invoice status", id, stmt)
}

// MarkCancelled estado Cancelled con fecha. La fila sigue activa para auditoría y respaldo.
func (r *InvoiceRepo) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	stmt := r.d.Builder().Update("invoices").
		Set("status", string(entity.InvoiceCancelled)).
		Set("cancelled_at", utc(at)).
		Set("updated_at", utc(at)).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	return r.mustAffect(ctx, "cancel invoice", id, stmt)
}

// ListByParty facturas activas del tercero (sin líneas).
func (r *InvoiceRepo) ListByParty(ctx context.Context, partyID string) ([]*entity.Invoice, error) {
	b := whereActive(r.selectInvoices().Where(sq.Eq{"party_id": partyID})).OrderBy("issued_at ASC", "id ASC")
	return r.list(ctx, "list invoices by party", b)
}

// ListDue facturas Created/PartiallyPaid con due_date anterior a asOf.
func (r *InvoiceRepo) ListDue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error) {
	b := whereActive(r.selectInvoices().Where(sq.And{
		sq.Eq{"status": []string{string(entity.InvoiceCreated), string(entity.InvoicePartiallyPaid)}},
		sq.NotEq{"due_date": nil},
		sq.Lt{"due_date": utc(asOf)},
	})).OrderBy("due_date ASC", "id ASC")
	return r.list(ctx, "list due invoices", b)
}

// NextNumber siguiente número correlativo por tipo: V-000001 (venta), C-000001 (compra).
// El máximo se toma por valor numérico y solo entre números con cola de dígitos; los
// números con otro formato (manuales o importados) no cuentan para el correlativo.
func (r *InvoiceRepo) NextNumber(ctx context.Context, kind entity.InvoiceKind) (string, error) {
	prefix := billing.NumberPrefix(kind)
	tail := fmt.Sprintf("MAX(CAST(SUBSTR(invoice_number, %d) AS BIGINT))", len(prefix)+1)
	b := r.d.Builder().Select(tail).From("invoices").Where(r.d.digitsAfter("invoice_number", prefix))
	row, err := queryRow(ctx, r.q, "next invoice number", b)
	if err != nil {
		return "", err
	}
	var last sql.NullInt64
	if err := row.Scan(&last); err != nil {
		return "", classify("next invoice number", err)
	}
	return fmt.Sprintf("%s%06d", prefix, last.Int64+1), nil
}

// CountOpenByItem facturas activas en cualquier estado distinto de Cancelled que incluyen el ítem.
func (r *InvoiceRepo) CountOpenByItem(ctx context.Context, itemID string) (int, error) {
	b := r.d.Builder().Select("COUNT(DISTINCT inv.id)").
		From("invoices inv").
		Join("invoice_items li ON li.invoice_id = inv.id").
		Where(sq.And{
			sq.Eq{"li.item_id": itemID},
			sq.Eq{"li.deleted_at": nil},
			sq.Eq{"inv.deleted_at": nil},
			sq.NotEq{"inv.status": string(entity.InvoiceCancelled)},
		})
	row, err := queryRow(ctx, r.q, "count open invoices by item", b)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, classify("count open invoices by item", err)
	}
	return n, nil
}

func (r *InvoiceRepo) mustAffect(ctx context.Context, op, id string, stmt sq.Sqlizer) error {
	n, err := exec(ctx, r.q, op, stmt)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("invoice", id)
	}
	return nil
}

func (r *InvoiceRepo) selectInvoices() sq.SelectBuilder {
	return r.d.Builder().Select(invoiceColumns...).From("invoices")
}

func (r *InvoiceRepo) list(ctx context.Context, op string, b sq.SelectBuilder) ([]*entity.Invoice, error) {
	rows, err := queryRows(ctx, r.q, op, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, classify("scan invoice", err)
		}
		list = append(list, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return list, nil
}

func scanInvoice(s scanner) (*entity.Invoice, error) {
	var (
		inv                                entity.Invoice
		kind, status                       string
		subtotal, discPct, discAmt, taxPct decimal.NullDecimal
		taxAmt, total                      decimal.NullDecimal
		dueDate, cancelledAt, deletedAt    sql.NullTime
	)
	if err := s.Scan(&inv.ID, &inv.Number, &kind, &inv.PartyID, &subtotal, &discPct, &discAmt,
		&taxPct, &taxAmt, &total, &status, &inv.IssuedAt, &dueDate, &cancelledAt,
		&inv.CreatedAt, &inv.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	inv.Kind = entity.InvoiceKind(strings.ToLower(kind))
	inv.Status = entity.InvoiceStatus(status)
	inv.Subtotal = dec(subtotal)
	inv.DiscountPct = dec(discPct)
	inv.DiscountAmount = dec(discAmt)
	inv.TaxPct = dec(taxPct)
	inv.TaxAmount = dec(taxAmt)
	inv.Total = dec(total)
	inv.DueDate = timePtr(dueDate)
	inv.CancelledAt = timePtr(cancelledAt)
	inv.Lifecycle = entity.LifecycleFrom(timePtr(deletedAt))
	return &inv, nil
}
