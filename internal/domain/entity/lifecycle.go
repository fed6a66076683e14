package entity

import "time"

// LifecycleState estado de vida de un registro (borrado lógico).
type LifecycleState string

const (
	LifecycleActive  LifecycleState = "active"
	LifecycleDeleted LifecycleState = "deleted"
)

// Lifecycle reemplaza la columna deleted_at anulable por un estado etiquetado:
// Active, o Deleted con la fecha del borrado lógico.
type Lifecycle struct {
	State     LifecycleState
	DeletedAt time.Time
}

// Active ciclo de vida de un registro vigente.
func Active() Lifecycle { return Lifecycle{State: LifecycleActive} }

// Deleted ciclo de vida de un registro con borrado lógico en at.
func Deleted(at time.Time) Lifecycle {
	return Lifecycle{State: LifecycleDeleted, DeletedAt: at}
}

// IsActive indica si el registro participa en las consultas "activas".
func (l Lifecycle) IsActive() bool { return l.State != LifecycleDeleted }

// DeletedAtPtr representación para persistencia (nil = activo).
func (l Lifecycle) DeletedAtPtr() *time.Time {
	if l.IsActive() {
		return nil
	}
	t := l.DeletedAt
	return &t
}

// LifecycleFrom reconstruye el estado desde la columna deleted_at.
func LifecycleFrom(deletedAt *time.Time) Lifecycle {
	if deletedAt == nil || deletedAt.IsZero() {
		return Active()
	}
	return Deleted(*deletedAt)
}
