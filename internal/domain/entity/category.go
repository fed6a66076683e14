package entity

import "time"

// Category agrupa ítems del inventario.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Lifecycle Lifecycle
}
