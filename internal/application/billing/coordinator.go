package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	rules "github.com/jhoicas/Inventario-ledger/internal/domain/billing"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/jhoicas/Inventario-ledger/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Operaciones reportadas en métricas y logs.
const (
	OpCreateInvoice = "create_invoice"
	OpFinalizeDraft = "finalize_draft"
	OpCancelInvoice = "cancel_invoice"
	OpRecordPayment = "record_payment"
	OpMarkOverdue   = "mark_overdue"
	OpAdjustStock   = "adjust_stock"
)

// Coordinator orquesta las operaciones de negocio que cambian stock y saldos a la vez.
// Cada operación corre completa dentro de una sola transacción del TxRunner; los avisos de
// stock se emiten después del commit.
//
// Cuando un efecto posterior al commit falla, los métodos devuelven el resultado confirmado
// junto con un *domain.SideEffectError.
type Coordinator struct {
	tx       TxRunner
	ledger   StockLedger
	balances BalanceAdjuster
	alerts   AlertSink
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewCoordinator construye el coordinador. alerts y m pueden ser nil.
func NewCoordinator(
	tx TxRunner,
	ledger StockLedger,
	balances BalanceAdjuster,
	alerts AlertSink,
	m *metrics.Metrics,
	log *logger.Logger,
) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		tx:       tx,
		ledger:   ledger,
		balances: balances,
		alerts:   alerts,
		metrics:  m,
		log:      log.Component("billing.coordinator"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateInvoice valida el comando, persiste la factura con sus líneas y, salvo borrador, aplica
// en la misma transacción las salidas (venta) o entradas (compra) de stock y el cargo al saldo
// del tercero. Si falta stock no escribe nada.
func (c *Coordinator) CreateInvoice(ctx context.Context, in dto.CreateInvoiceRequest) (*entity.Invoice, error) {
	start := time.Now()
	if err := dto.Validate(in); err != nil {
		c.observe(OpCreateInvoice, start, err)
		return nil, err
	}
	inv := c.newInvoice(in)
	if inv.Number != "" && rules.IsAutoNumber(inv.Number) {
		err := domain.Invalid("number", "formato reservado para la numeración automática")
		c.observe(OpCreateInvoice, start, err)
		return nil, err
	}

	var changes []inventory.Change
	err := c.tx.Run(ctx, func(r repository.Repos) error {
		if _, err := r.Parties.GetByID(ctx, inv.PartyID); err != nil {
			return err
		}
		items, err := loadItems(ctx, r, inv.Lines)
		if err != nil {
			return err
		}
		priceLines(inv, items)
		if inv.Status != entity.InvoiceDraft {
			if err := checkStock(inv, items); err != nil {
				return err
			}
		}
		if inv.Number == "" {
			if inv.Number, err = r.Invoices.NextNumber(ctx, inv.Kind); err != nil {
				return err
			}
		}
		if err := persist(ctx, r, inv); err != nil {
			return err
		}
		if inv.Status == entity.InvoiceDraft {
			return nil
		}
		changes, err = c.applyEffects(ctx, r, inv)
		return err
	})
	c.observe(OpCreateInvoice, start, err)
	if err != nil {
		return nil, err
	}
	c.log.Info().
		Str("invoice_id", inv.ID).
		Str("number", inv.Number).
		Str("status", string(inv.Status)).
		Str("total", inv.Total.String()).
		Msg("factura creada")
	return inv, c.afterCommit(ctx, OpCreateInvoice, changes)
}

// FinalizeDraft pasa un borrador a Created aplicando los efectos de stock y saldo.
func (c *Coordinator) FinalizeDraft(ctx context.Context, id string) (*entity.Invoice, error) {
	start := time.Now()
	var (
		inv     *entity.Invoice
		changes []inventory.Change
	)
	err := c.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		inv, err = r.Invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := rules.Transition(inv.Status, entity.InvoiceCreated); err != nil {
			return err
		}
		items, err := loadItems(ctx, r, inv.Lines)
		if err != nil {
			return err
		}
		if err := checkStock(inv, items); err != nil {
			return err
		}
		if changes, err = c.applyEffects(ctx, r, inv); err != nil {
			return err
		}
		now := c.now()
		if err := r.Invoices.UpdateStatus(ctx, inv.ID, entity.InvoiceCreated, now); err != nil {
			return err
		}
		inv.Status = entity.InvoiceCreated
		inv.UpdatedAt = now
		return nil
	})
	c.observe(OpFinalizeDraft, start, err)
	if err != nil {
		return nil, err
	}
	return inv, c.afterCommit(ctx, OpFinalizeDraft, changes)
}

// CancelInvoice revierte lo que hizo la creación: movimientos compensatorios "return" con las
// mismas cantidades y precios, resta el total del saldo del tercero y marca la factura Cancelled.
// Los movimientos originales no se tocan. Un borrador se anula sin efectos de stock ni saldo.
func (c *Coordinator) CancelInvoice(ctx context.Context, id string) (*entity.Invoice, error) {
	start := time.Now()
	var (
		inv     *entity.Invoice
		changes []inventory.Change
	)
	err := c.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		inv, err = r.Invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := rules.Transition(inv.Status, entity.InvoiceCancelled); err != nil {
			return err
		}
		if inv.Status != entity.InvoiceDraft {
			ref := entity.Reference{Type: entity.ReferenceReturn, ID: inv.ID, Note: "anulación " + inv.Number}
			if changes, err = c.ledger.BulkAdjustInTx(ctx, r, stockEntries(inv, true), ref); err != nil {
				return err
			}
			if _, err := c.balances.AdjustBalanceInTx(ctx, r, inv.PartyID, inv.Total.Neg()); err != nil {
				return err
			}
		}
		now := c.now()
		if err := r.Invoices.MarkCancelled(ctx, inv.ID, now); err != nil {
			return err
		}
		inv.Status = entity.InvoiceCancelled
		inv.CancelledAt = &now
		inv.UpdatedAt = now
		return nil
	})
	c.observe(OpCancelInvoice, start, err)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("invoice_id", inv.ID).Str("number", inv.Number).Msg("factura anulada")
	return inv, c.afterCommit(ctx, OpCancelInvoice, changes)
}

// RecordPayment registra un abono contra la factura, descuenta el saldo del tercero y mueve la
// factura a Paid o PartiallyPaid. Una factura vencida sigue Overdue hasta quedar pagada.
func (c *Coordinator) RecordPayment(ctx context.Context, in dto.RecordPaymentRequest) (*entity.Payment, *entity.Invoice, error) {
	start := time.Now()
	if err := dto.Validate(in); err != nil {
		c.observe(OpRecordPayment, start, err)
		return nil, nil, err
	}
	var (
		inv     *entity.Invoice
		payment *entity.Payment
	)
	err := c.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		inv, err = r.Invoices.GetForUpdate(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		switch inv.Status {
		case entity.InvoiceCreated, entity.InvoicePartiallyPaid, entity.InvoiceOverdue:
		default:
			return &domain.TransitionError{From: string(inv.Status), To: string(entity.InvoicePaid)}
		}
		paid, err := r.Payments.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		due := inv.Total.Sub(paid)
		if in.Amount.GreaterThan(due) {
			return domain.Invalid("amount", fmt.Sprintf("supera el saldo de la factura (%s)", due.String()))
		}

		now := c.now()
		paidAt := now
		if in.PaidAt != nil {
			paidAt = in.PaidAt.UTC()
		}
		payment = &entity.Payment{
			ID:        uuid.New().String(),
			PartyID:   inv.PartyID,
			InvoiceID: inv.ID,
			Amount:    in.Amount,
			PaidAt:    paidAt,
			Note:      in.Note,
			CreatedAt: now,
			Lifecycle: entity.Active(),
		}
		if err := r.Payments.Create(ctx, payment); err != nil {
			return err
		}
		if _, err := c.balances.AdjustBalanceInTx(ctx, r, inv.PartyID, in.Amount.Neg()); err != nil {
			return err
		}
		next := rules.StatusAfterPayment(inv.Status, in.Amount.Equal(due))
		if next == inv.Status {
			return nil
		}
		if err := rules.Transition(inv.Status, next); err != nil {
			return err
		}
		if err := r.Invoices.UpdateStatus(ctx, inv.ID, next, now); err != nil {
			return err
		}
		inv.Status = next
		inv.UpdatedAt = now
		return nil
	})
	c.observe(OpRecordPayment, start, err)
	if err != nil {
		return nil, nil, err
	}
	return payment, inv, nil
}

// MarkOverdue pasa a Overdue las facturas Created/PartiallyPaid con vencimiento anterior a asOf.
func (c *Coordinator) MarkOverdue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error) {
	start := time.Now()
	var due []*entity.Invoice
	err := c.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		due, err = r.Invoices.ListDue(ctx, asOf)
		if err != nil {
			return err
		}
		now := c.now()
		for _, inv := range due {
			if err := rules.Transition(inv.Status, entity.InvoiceOverdue); err != nil {
				return err
			}
			if err := r.Invoices.UpdateStatus(ctx, inv.ID, entity.InvoiceOverdue, now); err != nil {
				return err
			}
			inv.Status = entity.InvoiceOverdue
			inv.UpdatedAt = now
		}
		return nil
	})
	c.observe(OpMarkOverdue, start, err)
	if err != nil {
		return nil, err
	}
	if len(due) > 0 {
		c.log.Info().Int("count", len(due)).Msg("facturas vencidas")
	}
	return due, nil
}

// AdjustStock comando externo de ajuste de stock: add (entrada), remove (salida) o set (conteo).
func (c *Coordinator) AdjustStock(ctx context.Context, in dto.AdjustStockRequest) (*entity.Item, error) {
	start := time.Now()
	if err := dto.Validate(in); err != nil {
		c.observe(OpAdjustStock, start, err)
		return nil, err
	}
	ref := entity.Reference{Type: entity.ReferenceCorrection, ID: in.ReferenceID, Note: in.Reason}
	if in.ReferenceType != "" {
		ref.Type = entity.ReferenceType(in.ReferenceType)
	}
	if ref.ID == "" {
		ref.ID = in.ItemID
	}

	var ch inventory.Change
	err := c.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		switch in.Mode {
		case dto.AdjustAdd:
			ch, err = c.ledger.AddStockInTx(ctx, r, in.ItemID, in.Quantity, in.Rate, ref)
		case dto.AdjustRemove:
			ch, err = c.ledger.RemoveStockInTx(ctx, r, in.ItemID, in.Quantity, ref)
		default:
			ch, _, err = c.ledger.SetStockInTx(ctx, r, in.ItemID, in.Quantity, in.Reason)
		}
		return err
	})
	c.observe(OpAdjustStock, start, err)
	if err != nil {
		return nil, err
	}
	var changes []inventory.Change
	if ch.Movement != nil {
		changes = append(changes, ch)
	}
	return ch.Item, c.afterCommit(ctx, OpAdjustStock, changes)
}

// GetInvoice factura activa con sus líneas.
func (c *Coordinator) GetInvoice(ctx context.Context, id string) (*entity.Invoice, error) {
	var inv *entity.Invoice
	err := c.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		inv, err = r.Invoices.GetByID(ctx, id)
		return err
	})
	return inv, err
}

func (c *Coordinator) newInvoice(in dto.CreateInvoiceRequest) *entity.Invoice {
	now := c.now()
	kind := entity.InvoiceKind(in.Kind)
	if kind == "" {
		kind = entity.InvoiceSale
	}
	status := entity.InvoiceCreated
	if in.Draft {
		status = entity.InvoiceDraft
	}
	var dueDate *time.Time
	if in.DueDate != nil {
		d := in.DueDate.UTC()
		dueDate = &d
	}
	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		Number:      strings.TrimSpace(in.Number),
		Kind:        kind,
		PartyID:     in.PartyID,
		DiscountPct: in.DiscountPct,
		TaxPct:      in.TaxPct,
		Status:      status,
		IssuedAt:    now,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		Lifecycle:   entity.Active(),
	}
	for _, l := range in.Lines {
		inv.Lines = append(inv.Lines, &entity.InvoiceLineItem{
			ID:        uuid.New().String(),
			InvoiceID: inv.ID,
			ItemID:    l.ItemID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			CreatedAt: now,
			Lifecycle: entity.Active(),
		})
	}
	return inv
}

// applyEffects movimientos de stock (uno por ítem) y cargo del total al tercero.
func (c *Coordinator) applyEffects(ctx context.Context, r repository.Repos, inv *entity.Invoice) ([]inventory.Change, error) {
	ref := entity.Reference{Type: entity.ReferenceSale, ID: inv.ID, Note: inv.Number}
	if inv.Kind == entity.InvoicePurchase {
		ref.Type = entity.ReferencePurchase
	}
	changes, err := c.ledger.BulkAdjustInTx(ctx, r, stockEntries(inv, false), ref)
	if err != nil {
		return nil, err
	}
	if _, err := c.balances.AdjustBalanceInTx(ctx, r, inv.PartyID, inv.Total); err != nil {
		return nil, err
	}
	return changes, nil
}

// afterCommit métricas del ledger y avisos de stock. Nunca reintenta.
func (c *Coordinator) afterCommit(ctx context.Context, op string, changes []inventory.Change) error {
	c.ledger.Record(changes...)
	if c.alerts == nil || len(changes) == 0 {
		return nil
	}
	if err := c.alerts.EmitStockAlerts(ctx, changes); err != nil {
		c.metrics.RecordSideEffectFailure(op)
		c.log.Error().Err(err).Str("op", op).Msg("avisos de stock no registrados")
		return &domain.SideEffectError{Op: op + ": stock alerts", Err: err}
	}
	return nil
}

func (c *Coordinator) observe(op string, start time.Time, err error) {
	c.metrics.RecordOperation(op, err, time.Since(start))
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("operación revertida")
	}
}

func loadItems(ctx context.Context, r repository.Repos, lines []*entity.InvoiceLineItem) (map[string]*entity.Item, error) {
	items := make(map[string]*entity.Item, len(lines))
	for _, l := range lines {
		if _, ok := items[l.ItemID]; ok {
			continue
		}
		item, err := r.Items.GetByID(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		items[l.ItemID] = item
	}
	return items, nil
}

// priceLines completa precios vacíos con el del ítem y recalcula los totales de la factura.
func priceLines(inv *entity.Invoice, items map[string]*entity.Item) {
	calc := make([]rules.Line, len(inv.Lines))
	for i, l := range inv.Lines {
		if l.UnitPrice.IsZero() {
			item := items[l.ItemID]
			l.UnitPrice = item.SalePrice
			if inv.Kind == entity.InvoicePurchase {
				l.UnitPrice = item.CostPrice
			}
		}
		calc[i] = rules.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	t := rules.ComputeTotals(calc, inv.DiscountPct, inv.TaxPct)
	for i, l := range inv.Lines {
		l.Total = t.LineTotals[i]
	}
	inv.Subtotal = t.Subtotal
	inv.DiscountAmount = t.DiscountAmount
	inv.TaxAmount = t.TaxAmount
	inv.Total = t.Total
}

// checkStock en ventas, la cantidad agregada por ítem no puede superar el stock disponible.
func checkStock(inv *entity.Invoice, items map[string]*entity.Item) error {
	if inv.Kind != entity.InvoiceSale {
		return nil
	}
	requested := make(map[string]decimal.Decimal, len(items))
	for _, l := range inv.Lines {
		requested[l.ItemID] = requested[l.ItemID].Add(l.Quantity)
	}
	for _, l := range inv.Lines {
		item := items[l.ItemID]
		if qty := requested[l.ItemID]; qty.GreaterThan(item.CurrentStock) {
			return &domain.InsufficientStockError{
				ItemID:    item.ID,
				SKU:       item.SKU,
				Requested: qty,
				Available: item.CurrentStock,
			}
		}
	}
	return nil
}

func persist(ctx context.Context, r repository.Repos, inv *entity.Invoice) error {
	if err := r.Invoices.Create(ctx, inv); err != nil {
		return err
	}
	for _, l := range inv.Lines {
		if err := r.Invoices.CreateLine(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// stockEntries deltas firmados por línea: venta resta, compra suma; reverse invierte el signo.
func stockEntries(inv *entity.Invoice, reverse bool) []domaininv.Entry {
	entries := make([]domaininv.Entry, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		delta := l.Quantity
		if inv.Kind == entity.InvoiceSale {
			delta = delta.Neg()
		}
		if reverse {
			delta = delta.Neg()
		}
		entries = append(entries, domaininv.Entry{ItemID: l.ItemID, Delta: delta, Rate: l.UnitPrice})
	}
	return entries
}
