package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/jhoicas/Inventario-ledger/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Ledger único camino de escritura del stock: cada cambio de current_stock va acompañado
// de exactamente un movimiento en el ledger, en la misma transacción.
type Ledger struct {
	tx      TxRunner
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// NewLedger construye el ledger de inventario.
func NewLedger(tx TxRunner, m *metrics.Metrics, log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{
		tx:      tx,
		metrics: m,
		log:     log.Component("inventory.ledger"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Change efecto de una escritura del ledger sobre un ítem.
type Change struct {
	Item     *entity.Item
	Movement *entity.StockMovement
	Before   decimal.Decimal
}

// StatusBefore clasificación del stock antes del movimiento.
func (c Change) StatusBefore() entity.StockStatus {
	prev := *c.Item
	prev.CurrentStock = c.Before
	return prev.StockStatus()
}

// Alert estado de alerta alcanzado por el movimiento (bajo o agotado), si cambió.
func (c Change) Alert() (entity.StockStatus, bool) {
	after := c.Item.StockStatus()
	if after == entity.StockOK || after == c.StatusBefore() {
		return after, false
	}
	return after, true
}

// AddStock suma qty al ítem y registra un movimiento "in".
func (l *Ledger) AddStock(ctx context.Context, itemID string, qty, rate decimal.Decimal, ref entity.Reference) (*entity.Item, error) {
	var ch Change
	err := l.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		ch, err = l.AddStockInTx(ctx, r, itemID, qty, rate, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.Record(ch)
	return ch.Item, nil
}

// AddStockInTx como AddStock dentro de la transacción del llamador. Con referencia
// "purchase" recalcula cost_price como promedio ponderado.
func (l *Ledger) AddStockInTx(ctx context.Context, r repository.Repos, itemID string, qty, rate decimal.Decimal, ref entity.Reference) (Change, error) {
	if err := validateQty(qty); err != nil {
		return Change{}, err
	}
	if rate.IsNegative() {
		return Change{}, domain.Invalid("rate", "no puede ser negativa")
	}
	if err := validateRef(ref); err != nil {
		return Change{}, err
	}
	item, err := r.Items.GetForUpdate(ctx, itemID)
	if err != nil {
		return Change{}, err
	}
	return l.apply(ctx, r, item, qty, rate, ref)
}

// RemoveStock resta qty del ítem y registra un movimiento "out" al costo actual.
// Falla con InsufficientStockError sin modificar nada si qty supera el stock.
func (l *Ledger) RemoveStock(ctx context.Context, itemID string, qty decimal.Decimal, ref entity.Reference) (*entity.Item, error) {
	var ch Change
	err := l.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		ch, err = l.RemoveStockInTx(ctx, r, itemID, qty, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.Record(ch)
	return ch.Item, nil
}

// RemoveStockInTx como RemoveStock dentro de la transacción del llamador.
func (l *Ledger) RemoveStockInTx(ctx context.Context, r repository.Repos, itemID string, qty decimal.Decimal, ref entity.Reference) (Change, error) {
	if err := validateQty(qty); err != nil {
		return Change{}, err
	}
	if err := validateRef(ref); err != nil {
		return Change{}, err
	}
	item, err := r.Items.GetForUpdate(ctx, itemID)
	if err != nil {
		return Change{}, err
	}
	if qty.GreaterThan(item.CurrentStock) {
		return Change{}, insufficient(item, qty)
	}
	return l.apply(ctx, r, item, qty.Neg(), item.CostPrice, ref)
}

// SetStock fija el stock a newQty registrando la diferencia como corrección.
// Si no hay diferencia no escribe nada.
func (l *Ledger) SetStock(ctx context.Context, itemID string, newQty decimal.Decimal, reason string) (*entity.Item, error) {
	var (
		ch      Change
		changed bool
	)
	err := l.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		ch, changed, err = l.SetStockInTx(ctx, r, itemID, newQty, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		l.Record(ch)
	}
	return ch.Item, nil
}

// SetStockInTx como SetStock dentro de la transacción del llamador. changed=false si el
// stock ya era newQty.
func (l *Ledger) SetStockInTx(ctx context.Context, r repository.Repos, itemID string, newQty decimal.Decimal, reason string) (Change, bool, error) {
	if newQty.IsNegative() {
		return Change{}, false, domain.Invalid("quantity", "no puede ser negativa")
	}
	item, err := r.Items.GetForUpdate(ctx, itemID)
	if err != nil {
		return Change{}, false, err
	}
	delta := newQty.Sub(item.CurrentStock)
	if delta.IsZero() {
		return Change{Item: item, Before: item.CurrentStock}, false, nil
	}
	ref := entity.Reference{Type: entity.ReferenceCorrection, ID: item.ID, Note: reason}
	ch, err := l.apply(ctx, r, item, delta, item.CostPrice, ref)
	return ch, err == nil, err
}

// BulkAdjust aplica deltas firmados de varios ítems como una sola unidad atómica.
func (l *Ledger) BulkAdjust(ctx context.Context, entries []inventory.Entry, refType entity.ReferenceType, refID string) ([]*entity.Item, error) {
	var changes []Change
	err := l.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		changes, err = l.BulkAdjustInTx(ctx, r, entries, entity.Reference{Type: refType, ID: refID})
		return err
	})
	if err != nil {
		return nil, err
	}
	l.Record(changes...)
	items := make([]*entity.Item, len(changes))
	for i, ch := range changes {
		items[i] = ch.Item
	}
	return items, nil
}

// BulkAdjustInTx agrega las entradas por ítem, valida todas contra el stock disponible antes
// de escribir y luego registra un movimiento por ítem afectado.
func (l *Ledger) BulkAdjustInTx(ctx context.Context, r repository.Repos, entries []inventory.Entry, ref entity.Reference) ([]Change, error) {
	if len(entries) == 0 {
		return nil, domain.Invalid("entries", "sin entradas")
	}
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ItemID == "" {
			return nil, domain.Invalid("item_id", "requerido")
		}
		if e.Rate.IsNegative() {
			return nil, domain.Invalid("rate", "no puede ser negativa")
		}
	}
	if id, mixed := inventory.MixedSigns(entries); mixed {
		return nil, domain.Invalid("entries", "entradas y salidas mezcladas para el ítem "+id)
	}
	nets := inventory.Aggregate(entries)

	// bloqueo en orden estable; validación completa antes de cualquier escritura
	items := make(map[string]*entity.Item, len(nets))
	for _, id := range inventory.SortedIDs(nets) {
		item, err := r.Items.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		items[id] = item
	}
	for _, n := range nets {
		item := items[n.ItemID]
		if item.CurrentStock.Add(n.Delta).IsNegative() {
			return nil, insufficient(item, n.Quantity())
		}
	}

	changes := make([]Change, 0, len(nets))
	for _, n := range nets {
		ch, err := l.apply(ctx, r, items[n.ItemID], n.Delta, n.Rate(), ref)
		if err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	return changes, nil
}

// apply escribe el nuevo stock y su movimiento. delta != 0, ya validado.
func (l *Ledger) apply(ctx context.Context, r repository.Repos, item *entity.Item, delta, rate decimal.Decimal, ref entity.Reference) (Change, error) {
	now := l.now()
	before := item.CurrentStock
	after := before.Add(delta)
	if after.IsNegative() {
		return Change{}, insufficient(item, delta.Abs())
	}

	direction := entity.DirectionIn
	if delta.IsNegative() {
		direction = entity.DirectionOut
	}

	if direction == entity.DirectionIn && ref.Type == entity.ReferencePurchase {
		cost := inventory.CostCalculator(before, item.CostPrice, delta, rate)
		if err := r.Items.UpdateCost(ctx, item.ID, cost, now); err != nil {
			return Change{}, err
		}
		item.CostPrice = cost
	}
	if err := r.Items.UpdateStock(ctx, item.ID, after, now); err != nil {
		return Change{}, err
	}
	qty := delta.Abs()
	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		Direction:     direction,
		Quantity:      qty,
		Rate:          rate,
		TotalValue:    qty.Mul(rate).Round(4),
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
		Note:          ref.Note,
		StockAfter:    after,
		CreatedAt:     now,
		Lifecycle:     entity.Active(),
	}
	if err := r.Movements.Append(ctx, mov); err != nil {
		return Change{}, err
	}
	item.CurrentStock = after
	item.UpdatedAt = now
	return Change{Item: item, Movement: mov, Before: before}, nil
}

// Record registra métricas de cambios ya confirmados.
func (l *Ledger) Record(changes ...Change) {
	for _, ch := range changes {
		if ch.Movement == nil {
			continue
		}
		l.metrics.RecordMovement(string(ch.Movement.Direction), string(ch.Movement.ReferenceType))
		l.log.Debug().
			Str("item_id", ch.Item.ID).
			Str("direction", string(ch.Movement.Direction)).
			Str("quantity", ch.Movement.Quantity.String()).
			Str("stock_after", ch.Movement.StockAfter.String()).
			Msg("movimiento registrado")
	}
}

func validateQty(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return domain.Invalid("quantity", "debe ser mayor que cero")
	}
	return nil
}

func validateRef(ref entity.Reference) error {
	if !ref.Type.Valid() {
		return domain.Invalid("reference_type", "desconocido: "+string(ref.Type))
	}
	return nil
}

func insufficient(item *entity.Item, requested decimal.Decimal) error {
	return &domain.InsufficientStockError{
		ItemID:    item.ID,
		SKU:       item.SKU,
		Requested: requested,
		Available: item.CurrentStock,
	}
}
