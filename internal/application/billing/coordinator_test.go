package billing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/application/billing"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/sqlstore"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/sqlstore/sqlstoretest"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/jhoicas/Inventario-ledger/pkg/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	tx            *sqlstore.TxRunner
	ledger        *inventory.Ledger
	balances      *billing.BalanceLedger
	notifications *usecase.NotificationUseCase
	coord         *billing.Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	_, tx := sqlstoretest.Open(t)
	m := metrics.New("test")
	f := &fixture{tx: tx}
	f.ledger = inventory.NewLedger(tx, m, logger.Nop())
	f.balances = billing.NewBalanceLedger(tx, logger.Nop())
	f.notifications = usecase.NewNotificationUseCase(tx, logger.Nop())
	f.coord = billing.NewCoordinator(tx, f.ledger, f.balances, f.notifications, m, logger.Nop())
	return f
}

func (f *fixture) party(t *testing.T, typ entity.PartyType) *entity.Party {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	p := &entity.Party{
		ID: uuid.New().String(), Name: "Tercero " + string(typ), Type: typ,
		CreatedAt: now, UpdatedAt: now, Lifecycle: entity.Active(),
	}
	require.NoError(t, f.tx.Run(ctx, func(r repository.Repos) error { return r.Parties.Create(ctx, p) }))
	return p
}

func (f *fixture) item(t *testing.T, sku string, stock, cost, minStock decimal.Decimal) *entity.Item {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	it := &entity.Item{
		ID: uuid.New().String(), SKU: sku, Name: sku, Unit: "unit",
		CostPrice: cost, SalePrice: cost.Mul(d("1.5")), MinStock: minStock,
		CreatedAt: now, UpdatedAt: now, Lifecycle: entity.Active(),
	}
	require.NoError(t, f.tx.Run(ctx, func(r repository.Repos) error { return r.Items.Create(ctx, it) }))
	if stock.IsPositive() {
		_, err := f.ledger.AddStock(ctx, it.ID, stock, cost, entity.Reference{Type: entity.ReferenceOpening, ID: it.ID})
		require.NoError(t, err)
	}
	return it
}

func (f *fixture) stock(t *testing.T, itemID string) decimal.Decimal {
	t.Helper()
	it, err := f.ledger.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	return it.CurrentStock
}

func (f *fixture) balance(t *testing.T, partyID string) decimal.Decimal {
	t.Helper()
	check, err := f.balances.Reconcile(context.Background(), partyID)
	require.NoError(t, err)
	require.True(t, check.Consistent(), "saldo en caché %s vs recalculado %s", check.Cached, check.Recomputed)
	return check.Cached
}

func (f *fixture) invoicesOf(t *testing.T, partyID string) []*entity.Invoice {
	t.Helper()
	ctx := context.Background()
	var list []*entity.Invoice
	require.NoError(t, f.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.Invoices.ListByParty(ctx, partyID)
		return err
	}))
	return list
}

func sale(partyID, itemID, qty, price string) dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		PartyID: partyID,
		Kind:    string(entity.InvoiceSale),
		Lines:   []dto.InvoiceLineRequest{{ItemID: itemID, Quantity: d(qty), UnitPrice: d(price)}},
	}
}

func TestCoordinator_EscenarioA_VentaYAnulacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "A", d("20"), d("100"), d("0"))

	inv, err := f.coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "5", "150"))
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceCreated, inv.Status)
	assert.True(t, inv.Total.Equal(d("750")))
	assert.NotEmpty(t, inv.Number)

	assert.True(t, f.stock(t, item.ID).Equal(d("15")))
	assert.True(t, f.balance(t, customer.ID).Equal(d("750")))

	movs, err := f.ledger.Movements(ctx, item.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	var saleMov *entity.StockMovement
	for _, m := range movs {
		if m.ReferenceType == entity.ReferenceSale {
			saleMov = m
		}
	}
	require.NotNil(t, saleMov)
	assert.Equal(t, entity.DirectionOut, saleMov.Direction)
	assert.True(t, saleMov.Quantity.Equal(d("5")))
	assert.Equal(t, inv.ID, saleMov.ReferenceID)

	cancelled, err := f.coord.CancelInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	assert.True(t, f.stock(t, item.ID).Equal(d("20")))
	assert.True(t, f.balance(t, customer.ID).IsZero())

	movs, err = f.ledger.Movements(ctx, item.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 3, "la anulación agrega un movimiento compensatorio sin borrar el original")

	check, err := f.ledger.ReconcileStock(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, check.Consistent())
}

func TestCoordinator_AnularDosVecesEsTransicionInvalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "TWICE", d("5"), d("10"), d("0"))

	inv, err := f.coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "1", "0"))
	require.NoError(t, err)
	assert.True(t, inv.Total.Equal(d("15")), "precio vacío toma sale_price")

	_, err = f.coord.CancelInvoice(ctx, inv.ID)
	require.NoError(t, err)
	_, err = f.coord.CancelInvoice(ctx, inv.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.True(t, f.stock(t, item.ID).Equal(d("5")))
}

func TestCoordinator_StockInsuficienteNoEscribeNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "SHORT", d("3"), d("10"), d("0"))

	req := sale(customer.ID, item.ID, "2", "10")
	req.Lines = append(req.Lines, dto.InvoiceLineRequest{ItemID: item.ID, Quantity: d("2"), UnitPrice: d("10")})
	_, err := f.coord.CreateInvoice(ctx, req)
	require.Error(t, err)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise), "las líneas del mismo ítem se suman: %v", err)
	assert.True(t, ise.Requested.Equal(d("4")))

	assert.Empty(t, f.invoicesOf(t, customer.ID))
	assert.True(t, f.stock(t, item.ID).Equal(d("3")))
	assert.True(t, f.balance(t, customer.ID).IsZero())
}

func TestCoordinator_ValidacionYReferencias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)

	_, err := f.coord.CreateInvoice(ctx, dto.CreateInvoiceRequest{PartyID: customer.ID})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "sin líneas")

	_, err = f.coord.CreateInvoice(ctx, sale(customer.ID, uuid.New().String(), "1", "1"))
	assert.True(t, errors.Is(err, domain.ErrNotFound), "ítem inexistente")

	item := f.item(t, "REF", d("1"), d("1"), d("0"))
	_, err = f.coord.CreateInvoice(ctx, sale(uuid.New().String(), item.ID, "1", "1"))
	assert.True(t, errors.Is(err, domain.ErrNotFound), "tercero inexistente")
}

// failingBalances falla después de que el ledger ya descontó el stock dentro de la transacción.
type failingBalances struct{ err error }

func (b failingBalances) AdjustBalanceInTx(context.Context, repository.Repos, string, decimal.Decimal) (*entity.Party, error) {
	return nil, b.err
}

func TestCoordinator_FallaTrasDescontarStockRevierteTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "ATOM", d("20"), d("100"), d("0"))

	boom := errors.New("saldo no disponible")
	coord := billing.NewCoordinator(f.tx, f.ledger, failingBalances{err: boom}, nil, nil, logger.Nop())

	_, err := coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "5", "150"))
	require.ErrorIs(t, err, boom)

	assert.True(t, f.stock(t, item.ID).Equal(d("20")))
	movs, err := f.ledger.Movements(ctx, item.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1, "solo el movimiento de apertura")
	assert.Empty(t, f.invoicesOf(t, customer.ID))
	assert.True(t, f.balance(t, customer.ID).IsZero())
}

func TestCoordinator_VentasConcurrentesNoSobrevenden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "RACE", d("10"), d("1"), d("0"))

	const workers = 16
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "1", "2"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, workers-10, rejected)
	assert.True(t, f.stock(t, item.ID).IsZero())
	assert.True(t, f.balance(t, customer.ID).Equal(d("20")))
	assert.Len(t, f.invoicesOf(t, customer.ID), 10)
}

func TestCoordinator_CompraSumaStockYRecalculaCosto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	supplier := f.party(t, entity.PartySupplier)
	item := f.item(t, "BUY", d("10"), d("100"), d("0"))

	inv, err := f.coord.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		PartyID: supplier.ID,
		Kind:    string(entity.InvoicePurchase),
		Lines:   []dto.InvoiceLineRequest{{ItemID: item.ID, Quantity: d("10"), UnitPrice: d("130")}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePurchase, inv.Kind)

	got, err := f.ledger.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentStock.Equal(d("20")))
	assert.True(t, got.CostPrice.Equal(d("115")))
	assert.True(t, f.balance(t, supplier.ID).Equal(d("1300")))

	_, err = f.coord.CancelInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, f.stock(t, item.ID).Equal(d("10")))
	assert.True(t, f.balance(t, supplier.ID).IsZero())
}

func TestCoordinator_BorradorSinEfectosHastaFinalizar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "DRAFT", d("4"), d("10"), d("0"))

	req := sale(customer.ID, item.ID, "3", "20")
	req.Draft = true
	inv, err := f.coord.CreateInvoice(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceDraft, inv.Status)
	assert.True(t, f.stock(t, item.ID).Equal(d("4")))
	assert.True(t, f.balance(t, customer.ID).IsZero())

	final, err := f.coord.FinalizeDraft(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceCreated, final.Status)
	assert.True(t, f.stock(t, item.ID).Equal(d("1")))
	assert.True(t, f.balance(t, customer.ID).Equal(d("60")))

	_, err = f.coord.FinalizeDraft(ctx, inv.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestCoordinator_AbonosYConciliacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "PAY", d("10"), d("10"), d("0"))

	inv, err := f.coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "5", "20"))
	require.NoError(t, err)

	_, got, err := f.coord.RecordPayment(ctx, dto.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("40")})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePartiallyPaid, got.Status)
	assert.True(t, f.balance(t, customer.ID).Equal(d("60")))

	_, _, err = f.coord.RecordPayment(ctx, dto.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("61")})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "no se puede abonar más que el saldo")

	_, got, err = f.coord.RecordPayment(ctx, dto.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("10")})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePartiallyPaid, got.Status, "un segundo abono parcial no cambia el estado")
	assert.True(t, f.balance(t, customer.ID).Equal(d("50")))

	payment, got, err := f.coord.RecordPayment(ctx, dto.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("50"), Note: "saldo"})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePaid, got.Status)
	assert.Equal(t, customer.ID, payment.PartyID)
	assert.True(t, f.balance(t, customer.ID).IsZero())

	_, _, err = f.coord.RecordPayment(ctx, dto.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("1")})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "factura pagada no admite abonos")
}

func TestCoordinator_MarkOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "LATE", d("10"), d("10"), d("0"))

	past := time.Now().UTC().Add(-48 * time.Hour)
	future := time.Now().UTC().Add(48 * time.Hour)
	late := sale(customer.ID, item.ID, "1", "10")
	late.DueDate = &past
	onTime := sale(customer.ID, item.ID, "1", "10")
	onTime.DueDate = &future

	lateInv, err := f.coord.CreateInvoice(ctx, late)
	require.NoError(t, err)
	_, err = f.coord.CreateInvoice(ctx, onTime)
	require.NoError(t, err)

	marked, err := f.coord.MarkOverdue(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, lateInv.ID, marked[0].ID)
	assert.Equal(t, entity.InvoiceOverdue, marked[0].Status)

	// un abono parcial no la saca de Overdue
	_, got, err := f.coord.RecordPayment(ctx, dto.RecordPaymentRequest{InvoiceID: lateInv.ID, Amount: d("4")})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceOverdue, got.Status)

	marked, err = f.coord.MarkOverdue(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, marked)
}

func TestCoordinator_AvisosDeStockTrasElCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "ALERT", d("10"), d("10"), d("5"))

	_, err := f.coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "7", "10"))
	require.NoError(t, err)

	list, err := f.notifications.ListUnread(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, item.ID, list[0].ItemID)
}

type failingAlerts struct{}

func (failingAlerts) EmitStockAlerts(context.Context, []inventory.Change) error {
	return errors.New("cola de avisos llena")
}

func TestCoordinator_FallaPosteriorAlCommitSeReportaSinRevertir(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "SIDE", d("10"), d("10"), d("5"))
	coord := billing.NewCoordinator(f.tx, f.ledger, f.balances, failingAlerts{}, metrics.New("test"), logger.Nop())

	inv, err := coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "6", "10"))
	require.Error(t, err)
	var se *domain.SideEffectError
	require.True(t, errors.As(err, &se))
	require.NotNil(t, inv, "la factura confirmada se devuelve junto al error")

	assert.True(t, f.stock(t, item.ID).Equal(d("4")))
	assert.True(t, f.balance(t, customer.ID).Equal(d("60")))
}

func TestCoordinator_AdjustStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t, "ADJ", d("10"), d("10"), d("0"))

	got, err := f.coord.AdjustStock(ctx, dto.AdjustStockRequest{ItemID: item.ID, Mode: dto.AdjustRemove, Quantity: d("4"), Reason: "merma"})
	require.NoError(t, err)
	assert.True(t, got.CurrentStock.Equal(d("6")))

	got, err = f.coord.AdjustStock(ctx, dto.AdjustStockRequest{ItemID: item.ID, Mode: dto.AdjustSet, Quantity: d("9")})
	require.NoError(t, err)
	assert.True(t, got.CurrentStock.Equal(d("9")))

	_, err = f.coord.AdjustStock(ctx, dto.AdjustStockRequest{ItemID: item.ID, Mode: dto.AdjustRemove, Quantity: d("100")})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	_, err = f.coord.AdjustStock(ctx, dto.AdjustStockRequest{ItemID: item.ID, Mode: "explode", Quantity: d("1")})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCoordinator_NumeracionManualNoRompeElCorrelativo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "NUM", d("10"), d("10"), d("0"))

	first, err := f.coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "1", "10"))
	require.NoError(t, err)
	assert.Equal(t, "V-000001", first.Number)

	reserved := sale(customer.ID, item.ID, "1", "10")
	reserved.Number = "V-1"
	_, err = f.coord.CreateInvoice(ctx, reserved)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "err = %v", err)
	assert.Equal(t, "number", ve.Field)

	manual := sale(customer.ID, item.ID, "1", "10")
	manual.Number = "V-A7"
	got, err := f.coord.CreateInvoice(ctx, manual)
	require.NoError(t, err)
	assert.Equal(t, "V-A7", got.Number)

	for _, want := range []string{"V-000002", "V-000003"} {
		got, err := f.coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "1", "10"))
		require.NoError(t, err)
		assert.Equal(t, want, got.Number)
	}
	assert.True(t, f.stock(t, item.ID).Equal(d("6")))
}

func TestCoordinator_DescuentoMayorQueCienSeRechaza(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "DESC", d("10"), d("100"), d("0"))

	in := sale(customer.ID, item.ID, "1", "100")
	in.DiscountPct = d("250")
	_, err := f.coord.CreateInvoice(ctx, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	assert.True(t, f.stock(t, item.ID).Equal(d("10")))
	assert.True(t, f.balance(t, customer.ID).IsZero())
	assert.Empty(t, f.invoicesOf(t, customer.ID))
}

func TestCoordinator_ItemEnFacturaAbiertaNoSeBorra(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "BORRA", d("10"), d("10"), d("0"))
	items := usecase.NewItemUseCase(f.tx, f.ledger)

	inv, err := f.coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "3", "10"))
	require.NoError(t, err)

	err = items.Delete(ctx, item.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	cancelled, err := f.coord.CancelInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceCancelled, cancelled.Status)
	assert.True(t, f.stock(t, item.ID).Equal(d("10")))
	assert.True(t, f.balance(t, customer.ID).IsZero())

	require.NoError(t, items.Delete(ctx, item.ID))
}
