package billing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line entrada mínima para calcular totales.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Totals resultado determinista del cálculo de una factura.
type Totals struct {
	LineTotals     []decimal.Decimal
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// ComputeTotals calcula subtotal, descuento (porcentaje sobre el subtotal), impuesto
// (porcentaje sobre la base descontada) y total = subtotal - descuento + impuesto.
// Montos redondeados a 2 decimales; el mismo input produce siempre el mismo resultado.
func ComputeTotals(lines []Line, discountPct, taxPct decimal.Decimal) Totals {
	t := Totals{LineTotals: make([]decimal.Decimal, len(lines))}
	for i, l := range lines {
		lt := l.Quantity.Mul(l.UnitPrice).Round(2)
		t.LineTotals[i] = lt
		t.Subtotal = t.Subtotal.Add(lt)
	}
	t.DiscountAmount = percentOf(t.Subtotal, discountPct)
	t.TaxAmount = percentOf(t.Subtotal.Sub(t.DiscountAmount), taxPct)
	t.Total = t.Subtotal.Sub(t.DiscountAmount).Add(t.TaxAmount)
	return t
}

func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	if !pct.IsPositive() {
		return decimal.Zero
	}
	return base.Mul(pct).DivRound(hundred, 2)
}
