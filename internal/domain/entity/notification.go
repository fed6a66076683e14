package entity

import "time"

// NotificationKind tipo de aviso generado por el núcleo.
type NotificationKind string

const (
	NotificationLowStock   NotificationKind = "low_stock"
	NotificationOutOfStock NotificationKind = "out_of_stock"
)

// Notification registro que consume el emisor externo de notificaciones.
type Notification struct {
	ID        string
	Kind      NotificationKind
	ItemID    string
	Message   string
	CreatedAt time.Time
	ReadAt    *time.Time
	Lifecycle Lifecycle
}
