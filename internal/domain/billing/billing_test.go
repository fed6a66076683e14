package billing_test

import (
	"errors"
	"testing"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/billing"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotals_DescuentoEImpuesto(t *testing.T) {
	lines := []billing.Line{
		{Quantity: d("5"), UnitPrice: d("150")},
		{Quantity: d("2"), UnitPrice: d("12.345")},
	}
	got := billing.ComputeTotals(lines, d("10"), d("19"))

	require.Len(t, got.LineTotals, 2)
	assert.True(t, got.LineTotals[0].Equal(d("750")))
	assert.True(t, got.LineTotals[1].Equal(d("24.69")), "línea redondeada a 2 decimales: %s", got.LineTotals[1])
	assert.True(t, got.Subtotal.Equal(d("774.69")))
	assert.True(t, got.DiscountAmount.Equal(d("77.47")), "descuento: %s", got.DiscountAmount)
	// base 697.22 * 19% = 132.4718
	assert.True(t, got.TaxAmount.Equal(d("132.47")), "impuesto: %s", got.TaxAmount)
	assert.True(t, got.Total.Equal(d("829.69")), "total: %s", got.Total)
}

func TestComputeTotals_SinDescuentoNiImpuesto(t *testing.T) {
	got := billing.ComputeTotals([]billing.Line{{Quantity: d("5"), UnitPrice: d("150")}}, decimal.Zero, decimal.Zero)
	assert.True(t, got.Total.Equal(d("750")))
	assert.True(t, got.DiscountAmount.IsZero())
	assert.True(t, got.TaxAmount.IsZero())
}

func TestComputeTotals_Determinista(t *testing.T) {
	lines := []billing.Line{{Quantity: d("3.3"), UnitPrice: d("7.77")}}
	a := billing.ComputeTotals(lines, d("2.5"), d("8"))
	b := billing.ComputeTotals(lines, d("2.5"), d("8"))
	assert.True(t, a.Total.Equal(b.Total))
}

func TestTransition_Tabla(t *testing.T) {
	cases := []struct {
		from, to entity.InvoiceStatus
		ok       bool
	}{
		{entity.InvoiceDraft, entity.InvoiceCreated, true},
		{entity.InvoiceDraft, entity.InvoicePaid, false},
		{entity.InvoiceCreated, entity.InvoicePartiallyPaid, true},
		{entity.InvoiceCreated, entity.InvoicePaid, true},
		{entity.InvoiceCreated, entity.InvoiceOverdue, true},
		{entity.InvoicePartiallyPaid, entity.InvoicePaid, true},
		{entity.InvoicePartiallyPaid, entity.InvoicePartiallyPaid, false},
		{entity.InvoiceOverdue, entity.InvoiceOverdue, false},
		{entity.InvoiceOverdue, entity.InvoicePaid, true},
		{entity.InvoiceOverdue, entity.InvoiceCreated, false},
		{entity.InvoicePaid, entity.InvoiceCancelled, true},
		{entity.InvoicePaid, entity.InvoiceOverdue, false},
		{entity.InvoiceCancelled, entity.InvoiceCreated, false},
		{entity.InvoiceCancelled, entity.InvoiceCancelled, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.ok, billing.CanTransition(tc.from, tc.to))
			err := billing.Transition(tc.from, tc.to)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, billing.IsTerminal(entity.InvoiceCancelled))
	assert.False(t, billing.IsTerminal(entity.InvoicePaid))
	assert.False(t, billing.IsTerminal(entity.InvoiceDraft))
}

func TestStatusAfterPayment(t *testing.T) {
	assert.Equal(t, entity.InvoicePaid, billing.StatusAfterPayment(entity.InvoiceCreated, true))
	assert.Equal(t, entity.InvoicePartiallyPaid, billing.StatusAfterPayment(entity.InvoiceCreated, false))
	assert.Equal(t, entity.InvoiceOverdue, billing.StatusAfterPayment(entity.InvoiceOverdue, false))
	assert.Equal(t, entity.InvoicePaid, billing.StatusAfterPayment(entity.InvoiceOverdue, true))
}

func TestIsAutoNumber(t *testing.T) {
	assert.Equal(t, "V-", billing.NumberPrefix(entity.InvoiceSale))
	assert.Equal(t, "C-", billing.NumberPrefix(entity.InvoicePurchase))

	for _, n := range []string{"V-1", "V-000001", "C-42"} {
		assert.True(t, billing.IsAutoNumber(n), n)
	}
	for _, n := range []string{"V-", "V-A7", "V-7A", "FAC-1", "v-1", "X-000001"} {
		assert.False(t, billing.IsAutoNumber(n), n)
	}
}
