package inventory

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Entry delta firmado de stock para un ítem dentro de un ajuste masivo.
type Entry struct {
	ItemID string
	Delta  decimal.Decimal // > 0 entrada, < 0 salida
	Rate   decimal.Decimal
}

// Net agregado por ítem de un conjunto de entradas: un solo movimiento por ítem afectado.
type Net struct {
	ItemID     string
	Delta      decimal.Decimal
	TotalValue decimal.Decimal // Σ |delta_i| * rate_i, siempre >= 0
}

// Quantity cantidad absoluta del movimiento resultante.
func (n Net) Quantity() decimal.Decimal { return n.Delta.Abs() }

// Rate tarifa promedio ponderada del movimiento resultante.
func (n Net) Rate() decimal.Decimal {
	qty := n.Quantity()
	if qty.IsZero() {
		return decimal.Zero
	}
	return n.TotalValue.DivRound(qty, 4)
}

// Aggregate suma las entradas por ítem conservando el orden de primera aparición.
// Los ítems cuyo delta neto es cero se descartan (no afectan el stock).
func Aggregate(entries []Entry) []Net {
	byItem := make(map[string]*Net, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		n, ok := byItem[e.ItemID]
		if !ok {
			n = &Net{ItemID: e.ItemID}
			byItem[e.ItemID] = n
			order = append(order, e.ItemID)
		}
		n.Delta = n.Delta.Add(e.Delta)
		n.TotalValue = n.TotalValue.Add(e.Delta.Abs().Mul(e.Rate))
	}
	out := make([]Net, 0, len(order))
	for _, id := range order {
		if n := byItem[id]; !n.Delta.IsZero() {
			out = append(out, *n)
		}
	}
	return out
}

// MixedSigns devuelve el primer ítem que recibe entradas y salidas en el mismo ajuste.
// Un ajuste así no tiene una tarifa única bien definida para su movimiento neto.
func MixedSigns(entries []Entry) (string, bool) {
	sign := make(map[string]int, len(entries))
	for _, e := range entries {
		s := e.Delta.Sign()
		if s == 0 {
			continue
		}
		if prev, ok := sign[e.ItemID]; ok && prev != s {
			return e.ItemID, true
		}
		sign[e.ItemID] = s
	}
	return "", false
}

// SortedIDs ids de ítems en orden estable, útil para bloquear filas siempre en el mismo orden.
func SortedIDs(nets []Net) []string {
	ids := make([]string, 0, len(nets))
	for _, n := range nets {
		ids = append(ids, n.ItemID)
	}
	sort.Strings(ids)
	return ids
}
