package dto_test

import (
	"errors"
	"testing"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RutaDelCampo(t *testing.T) {
	err := dto.Validate(dto.CreateInvoiceRequest{
		PartyID: "p1",
		Lines: []dto.InvoiceLineRequest{
			{ItemID: "i1", Quantity: decimal.NewFromInt(1)},
			{ItemID: "i2", Quantity: decimal.Zero},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "lines[1].quantity", ve.Field)
	assert.Equal(t, "debe ser mayor que cero", ve.Reason)
}

func TestValidate_Decimales(t *testing.T) {
	err := dto.Validate(dto.CreateItemRequest{SKU: "A", Name: "A", CostPrice: decimal.NewFromInt(-1)})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "cost_price", ve.Field)
	assert.Equal(t, "no puede ser negativo", ve.Reason)

	assert.NoError(t, dto.Validate(dto.CreateItemRequest{SKU: "A", Name: "A"}))
}

func TestValidate_OneOfYRequerido(t *testing.T) {
	err := dto.Validate(dto.CreatePartyRequest{Name: "X", Type: "socio"})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "type", ve.Field)
	assert.Contains(t, ve.Reason, "customer supplier")

	err = dto.Validate(dto.CreateInvoiceRequest{PartyID: "p1"})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "lines", ve.Field)
	assert.Equal(t, "requerido", ve.Reason)

	err = dto.Validate(dto.RecordPaymentRequest{InvoiceID: "inv", Amount: decimal.NewFromInt(5)})
	assert.NoError(t, err)
}

func TestPageRequest_DefaultPage(t *testing.T) {
	p := dto.PageRequest{Offset: -3}
	p.DefaultPage()
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestValidate_DescuentoHastaCien(t *testing.T) {
	in := dto.CreateInvoiceRequest{
		PartyID:     "p1",
		Lines:       []dto.InvoiceLineRequest{{ItemID: "i1", Quantity: decimal.NewFromInt(1)}},
		DiscountPct: decimal.NewFromInt(250),
	}
	var ve *domain.ValidationError
	require.True(t, errors.As(dto.Validate(in), &ve))
	assert.Equal(t, "discount_pct", ve.Field)
	assert.Equal(t, "no puede ser mayor que 100", ve.Reason)

	in.DiscountPct = decimal.NewFromInt(100)
	assert.NoError(t, dto.Validate(in))
}
