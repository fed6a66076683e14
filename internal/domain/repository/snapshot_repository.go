package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// SnapshotRepository acceso crudo a filas por tabla para respaldo/restauración.
// No aplica reglas de negocio.
type SnapshotRepository interface {
	// Tables tablas rastreadas en orden de dependencia de claves foráneas.
	Tables() []string
	Optional(table string) bool
	Exists(ctx context.Context, table string) (bool, error)
	ExportActive(ctx context.Context, table string) ([]entity.Row, error)
	CountActive(ctx context.Context, table string) (int, error)
	TombstoneActive(ctx context.Context, table string, at time.Time) (int64, error)
	Restore(ctx context.Context, table string, row entity.Row) error
}
