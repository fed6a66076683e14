package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

// CategoryUseCase casos de uso para categorías.
type CategoryUseCase struct {
	tx  inventory.TxRunner
	now func() time.Time
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(tx inventory.TxRunner) *CategoryUseCase {
	return &CategoryUseCase{tx: tx, now: func() time.Time { return time.Now().UTC() }}
}

// Create crea una categoría.
func (uc *CategoryUseCase) Create(ctx context.Context, in dto.CreateCategoryRequest) (*entity.Category, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	now := uc.now()
	c := &entity.Category{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		CreatedAt: now,
		UpdatedAt: now,
		Lifecycle: entity.Active(),
	}
	if err := uc.tx.Run(ctx, func(r repository.Repos) error { return r.Categories.Create(ctx, c) }); err != nil {
		return nil, err
	}
	return c, nil
}

// List categorías activas.
func (uc *CategoryUseCase) List(ctx context.Context) ([]*entity.Category, error) {
	var list []*entity.Category
	err := uc.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.Categories.List(ctx)
		return err
	})
	return list, err
}

// Delete borrado lógico de la categoría.
func (uc *CategoryUseCase) Delete(ctx context.Context, id string) error {
	return uc.tx.Run(ctx, func(r repository.Repos) error {
		return r.Categories.SoftDelete(ctx, id, uc.now())
	})
}

// NotificationUseCase registra los avisos de stock que consume el emisor externo.
type NotificationUseCase struct {
	tx  inventory.TxRunner
	log *logger.Logger
	now func() time.Time
}

// NewNotificationUseCase construye el caso de uso.
func NewNotificationUseCase(tx inventory.TxRunner, log *logger.Logger) *NotificationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationUseCase{
		tx:  tx,
		log: log.Component("notifications"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// EmitStockAlerts crea un aviso por cada ítem que pasó a stock bajo o agotado.
// Corre en su propia transacción, después del commit de la operación que lo originó.
func (uc *NotificationUseCase) EmitStockAlerts(ctx context.Context, changes []inventory.Change) error {
	now := uc.now()
	var pending []*entity.Notification
	for _, ch := range changes {
		status, ok := ch.Alert()
		if !ok {
			continue
		}
		n := &entity.Notification{
			ID:        uuid.New().String(),
			ItemID:    ch.Item.ID,
			CreatedAt: now,
			Lifecycle: entity.Active(),
		}
		if status == entity.StockEmpty {
			n.Kind = entity.NotificationOutOfStock
			n.Message = fmt.Sprintf("%s (%s) agotado", ch.Item.Name, ch.Item.SKU)
		} else {
			n.Kind = entity.NotificationLowStock
			n.Message = fmt.Sprintf("%s (%s) con stock bajo: %s", ch.Item.Name, ch.Item.SKU, ch.Item.CurrentStock.String())
		}
		pending = append(pending, n)
	}
	if len(pending) == 0 {
		return nil
	}
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		for _, n := range pending {
			if err := r.Notifications.Create(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, n := range pending {
		uc.log.Info().Str("item_id", n.ItemID).Str("kind", string(n.Kind)).Msg("aviso de stock")
	}
	return nil
}

// ListUnread avisos pendientes de entrega.
func (uc *NotificationUseCase) ListUnread(ctx context.Context, limit int) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []*entity.Notification
	err := uc.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.Notifications.ListUnread(ctx, limit)
		return err
	})
	return list, err
}

// MarkRead marca el aviso como entregado.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, id string) error {
	return uc.tx.Run(ctx, func(r repository.Repos) error {
		return r.Notifications.MarkRead(ctx, id, uc.now())
	})
}
