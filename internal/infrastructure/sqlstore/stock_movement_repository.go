package sqlstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

var movementColumns = []string{
	"id", "item_id", "direction", "quantity", "rate", "total_value", "reference_type",
	"reference_id", "note", "stock_after", "created_at", "deleted_at",
}

// StockMovementRepo ledger append-only: no expone Update ni Delete.
type StockMovementRepo struct {
	q Querier
	d Dialect
}

// NewStockMovementRepository construye el adaptador (pool o tx).
func NewStockMovementRepository(q Querier, d Dialect) *StockMovementRepo {
	return &StockMovementRepo{q: q, d: d}
}

// Append inserta un movimiento. Nunca se modifica después.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	stmt := r.d.Builder().Insert("stock_movements").Columns(movementColumns...).Values(
		m.ID, m.ItemID, string(m.Direction), m.Quantity, m.Rate, m.TotalValue, string(m.ReferenceType),
		m.ReferenceID, m.Note, m.StockAfter, utc(m.CreatedAt), nullTime(m.Lifecycle.DeletedAtPtr()),
	)
	_, err := exec(ctx, r.q, "insert stock movement", Keyed{ID: m.ID, Stmt: stmt})
	return err
}

// ListByItem movimientos activos del ítem, más recientes primero.
func (r *StockMovementRepo) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error) {
	b := whereActive(r.selectMovements().Where(sq.Eq{"item_id": itemID})).OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
		if offset > 0 {
			b = b.Offset(uint64(offset))
		}
	}
	return r.list(ctx, "list movements", b)
}

// ListByItemAsc todos los movimientos activos del ítem en orden cronológico.
func (r *StockMovementRepo) ListByItemAsc(ctx context.Context, itemID string) ([]*entity.StockMovement, error) {
	b := whereActive(r.selectMovements().Where(sq.Eq{"item_id": itemID})).OrderBy("created_at ASC", "id ASC")
	return r.list(ctx, "list movements asc", b)
}

// ListByReference movimientos generados por una operación de negocio.
func (r *StockMovementRepo) ListByReference(ctx context.Context, refType entity.ReferenceType, refID string) ([]*entity.StockMovement, error) {
	b := whereActive(r.selectMovements().Where(sq.Eq{"reference_type": string(refType), "reference_id": refID})).
		OrderBy("created_at ASC", "id ASC")
	return r.list(ctx, "list movements by reference", b)
}

func (r *StockMovementRepo) selectMovements() sq.SelectBuilder {
	return r.d.Builder().Select(movementColumns...).From("stock_movements")
}

func (r *StockMovementRepo) list(ctx context.Context, op string, b sq.SelectBuilder) ([]*entity.StockMovement, error) {
	rows, err := queryRows(ctx, r.q, op, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var (
			m                            entity.StockMovement
			direction, refType           string
			qty, rate, total, stockAfter decimal.NullDecimal
			deletedAt                    sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.ItemID, &direction, &qty, &rate, &total, &refType,
			&m.ReferenceID, &m.Note, &stockAfter, &m.CreatedAt, &deletedAt); err != nil {
			return nil, classify("scan stock movement", err)
		}
		m.Direction = entity.Direction(direction)
		m.ReferenceType = entity.ReferenceType(refType)
		m.Quantity = dec(qty)
		m.Rate = dec(rate)
		m.TotalValue = dec(total)
		m.StockAfter = dec(stockAfter)
		m.Lifecycle = entity.LifecycleFrom(timePtr(deletedAt))
		list = append(list, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return list, nil
}
