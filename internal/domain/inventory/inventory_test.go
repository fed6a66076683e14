package inventory_test

import (
	"testing"

	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	// 10 unidades a 100 + 10 a 130 = 115
	got := inventory.CostCalculator(d("10"), d("100"), d("10"), d("130"))
	assert.True(t, got.Equal(d("115")), "costo: %s", got)
}

func TestCostCalculator_SinStockPrevio(t *testing.T) {
	got := inventory.CostCalculator(decimal.Zero, d("999"), d("4"), d("12.5"))
	assert.True(t, got.Equal(d("12.5")))
}

func TestCostCalculator_CantidadTotalCero(t *testing.T) {
	assert.True(t, inventory.CostCalculator(decimal.Zero, d("10"), decimal.Zero, d("10")).IsZero())
}

func TestAggregate_UnMovimientoPorItem(t *testing.T) {
	nets := inventory.Aggregate([]inventory.Entry{
		{ItemID: "b", Delta: d("-2"), Rate: d("10")},
		{ItemID: "a", Delta: d("-3"), Rate: d("20")},
		{ItemID: "b", Delta: d("-1"), Rate: d("16")},
	})
	require.Len(t, nets, 2)

	assert.Equal(t, "b", nets[0].ItemID, "se conserva el orden de primera aparición")
	assert.True(t, nets[0].Delta.Equal(d("-3")))
	assert.True(t, nets[0].Quantity().Equal(d("3")))
	assert.True(t, nets[0].TotalValue.Equal(d("36")))
	assert.True(t, nets[0].Rate().Equal(d("12")))

	assert.Equal(t, "a", nets[1].ItemID)
	assert.True(t, nets[1].Rate().Equal(d("20")))
}

func TestAggregate_DescartaNetoCero(t *testing.T) {
	nets := inventory.Aggregate([]inventory.Entry{
		{ItemID: "a", Delta: d("5"), Rate: d("1")},
		{ItemID: "a", Delta: d("-5"), Rate: d("1")},
		{ItemID: "c", Delta: d("1"), Rate: d("1")},
	})
	require.Len(t, nets, 1)
	assert.Equal(t, "c", nets[0].ItemID)
}

func TestSortedIDs(t *testing.T) {
	nets := []inventory.Net{{ItemID: "z"}, {ItemID: "a"}, {ItemID: "m"}}
	assert.Equal(t, []string{"a", "m", "z"}, inventory.SortedIDs(nets))
}

func TestMixedSigns(t *testing.T) {
	id, mixed := inventory.MixedSigns([]inventory.Entry{
		{ItemID: "a", Delta: d("5"), Rate: d("10")},
		{ItemID: "b", Delta: d("-1"), Rate: d("10")},
		{ItemID: "a", Delta: d("-3"), Rate: d("10")},
	})
	assert.True(t, mixed)
	assert.Equal(t, "a", id)

	_, mixed = inventory.MixedSigns([]inventory.Entry{
		{ItemID: "a", Delta: d("-2"), Rate: d("10")},
		{ItemID: "a", Delta: d("-3"), Rate: d("12")},
		{ItemID: "b", Delta: d("4"), Rate: d("1")},
	})
	assert.False(t, mixed)
}
