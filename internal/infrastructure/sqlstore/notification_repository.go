package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

var notificationColumns = []string{"id", "kind", "item_id", "message", "created_at", "read_at", "deleted_at"}

// NotificationRepo registros de aviso que lee el emisor externo.
type NotificationRepo struct {
	q Querier
	d Dialect
}

// NewNotificationRepository construye el adaptador (pool o tx).
func NewNotificationRepository(q Querier, d Dialect) *NotificationRepo {
	return &NotificationRepo{q: q, d: d}
}

func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	stmt := r.d.Builder().Insert("notifications").Columns(notificationColumns...).Values(
		n.ID, string(n.Kind), n.ItemID, n.Message, utc(n.CreatedAt), nullTime(n.ReadAt),
		nullTime(n.Lifecycle.DeletedAtPtr()),
	)
	_, err := exec(ctx, r.q, "insert notification", Keyed{ID: n.ID, Stmt: stmt})
	return err
}

// ListUnread avisos pendientes, más antiguos primero.
func (r *NotificationRepo) ListUnread(ctx context.Context, limit int) ([]*entity.Notification, error) {
	b := whereActive(r.d.Builder().Select(notificationColumns...).From("notifications").
		Where(sq.Eq{"read_at": nil})).OrderBy("created_at ASC", "id ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	rows, err := queryRows(ctx, r.q, "list notifications", b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*entity.Notification
	for rows.Next() {
		var (
			n                 entity.Notification
			kind              string
			readAt, deletedAt sql.NullTime
		)
		if err := rows.Scan(&n.ID, &kind, &n.ItemID, &n.Message, &n.CreatedAt, &readAt, &deletedAt); err != nil {
			return nil, classify("scan notification", err)
		}
		n.Kind = entity.NotificationKind(kind)
		n.ReadAt = timePtr(readAt)
		n.Lifecycle = entity.LifecycleFrom(timePtr(deletedAt))
		list = append(list, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list notifications", err)
	}
	return list, nil
}

// MarkRead marca el aviso como entregado.
func (r *NotificationRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	stmt := r.d.Builder().Update("notifications").
		Set("read_at", utc(at)).
		Where(sq.Eq{"id": id, "deleted_at": nil, "read_at": nil})
	n, err := exec(ctx, r.q, "mark notification read", stmt)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("notification", id)
	}
	return nil
}
