package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// NotificationRepository registros que consume el emisor externo de notificaciones.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListUnread(ctx context.Context, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
}
