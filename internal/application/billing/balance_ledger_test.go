package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/application/billing"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeBalance(t *testing.T) {
	party := &entity.Party{ID: "p1", OutstandingBalance: d("70")}
	invoices := []*entity.Invoice{
		{Status: entity.InvoiceCreated, Total: d("100"), Lifecycle: entity.Active()},
		{Status: entity.InvoiceDraft, Total: d("999"), Lifecycle: entity.Active()},
		{Status: entity.InvoiceCancelled, Total: d("50"), Lifecycle: entity.Active()},
		{Status: entity.InvoicePartiallyPaid, Total: d("20"), Lifecycle: entity.Active()},
		{Status: entity.InvoiceCreated, Total: d("5"), Lifecycle: entity.Deleted(time.Now())},
	}
	payments := []*entity.Payment{
		{Amount: d("30"), Lifecycle: entity.Active()},
		{Amount: d("20"), Lifecycle: entity.Active()},
		{Amount: d("8"), Lifecycle: entity.Deleted(time.Now())},
	}

	check := billing.RecomputeBalance(party, invoices, payments)
	assert.True(t, check.Recomputed.Equal(d("70")), "recalculado: %s", check.Recomputed)
	assert.True(t, check.Consistent())

	party.OutstandingBalance = d("75")
	check = billing.RecomputeBalance(party, invoices, payments)
	assert.True(t, check.Delta.Equal(d("5")))
	assert.False(t, check.Consistent())
}

func TestBalanceLedger_AdjustBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.party(t, entity.PartyCustomer)

	got, err := f.balances.AdjustBalance(ctx, p.ID, d("12.5"))
	require.NoError(t, err)
	assert.True(t, got.OutstandingBalance.Equal(d("12.5")))

	// un ajuste directo sin factura no concilia
	check, err := f.balances.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, check.Delta.Equal(d("12.5")))
}

func TestBalanceLedger_AnularFacturaPagadaDejaSaldoAFavor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.party(t, entity.PartyCustomer)
	item := f.item(t, "CREDIT", d("5"), d("10"), d("0"))

	inv, err := f.coord.CreateInvoice(ctx, sale(customer.ID, item.ID, "2", "10"))
	require.NoError(t, err)
	_, _, err = f.coord.RecordPayment(ctx, dto.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("20")})
	require.NoError(t, err)

	_, err = f.coord.CancelInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, f.balance(t, customer.ID).Equal(d("-20")))
	assert.True(t, f.stock(t, item.ID).Equal(d("5")))
}
