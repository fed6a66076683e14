package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/jhoicas/Inventario-ledger/pkg/metrics"
)

// TxRunner transacciones del almacenamiento.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repos) error) error
	Read(ctx context.Context, fn func(repos repository.Repos) error) error
}

// SchemaVersioner versión de migración aplicada; se usa como versión del snapshot.
type SchemaVersioner interface {
	SchemaVersion(ctx context.Context) (int, error)
}

// Coordinator exporta e importa el estado completo. Trabaja sobre filas crudas, sin reglas de
// negocio, respetando el orden de claves foráneas.
type Coordinator struct {
	tx       TxRunner
	versions SchemaVersioner
	store    *FileStore
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewCoordinator construye el coordinador de respaldos. store puede ser nil si solo se usan
// ExportSnapshot/ImportSnapshot.
func NewCoordinator(tx TxRunner, versions SchemaVersioner, store *FileStore, m *metrics.Metrics, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		tx:       tx,
		versions: versions,
		store:    store,
		metrics:  m,
		log:      log.Component("backup"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ExportSnapshot lee todas las filas activas dentro de una sola lectura consistente.
// Las tablas opcionales que no existen quedan como arreglo vacío.
func (c *Coordinator) ExportSnapshot(ctx context.Context) (*entity.Snapshot, error) {
	version, err := c.versions.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	snap := &entity.Snapshot{
		Version:   version,
		Timestamp: c.now(),
		Data:      make(map[string][]entity.Row),
	}
	err = c.tx.Read(ctx, func(r repository.Repos) error {
		for _, table := range r.Snapshots.Tables() {
			ok, err := r.Snapshots.Exists(ctx, table)
			if err != nil {
				return err
			}
			if !ok {
				if !r.Snapshots.Optional(table) {
					return &domain.StorageError{Kind: domain.StorageSchema, Op: "export", Err: fmt.Errorf("falta la tabla %s", table)}
				}
				snap.Data[table] = []entity.Row{}
				continue
			}
			rows, err := r.Snapshots.ExportActive(ctx, table)
			if err != nil {
				return err
			}
			snap.Data[table] = rows
			snap.RecordCount += len(rows)
		}
		return nil
	})
	if err != nil {
		c.metrics.RecordBackup("export", err)
		return nil, err
	}
	if snap.Size, err = dataSize(snap.Data); err != nil {
		c.metrics.RecordBackup("export", err)
		return nil, fmt.Errorf("export size: %w", err)
	}
	c.metrics.RecordBackup("export", nil)
	return snap, nil
}

// ImportSnapshot valida el documento y, en una sola transacción, marca como borradas las filas
// activas de cada tabla presente en el snapshot e inserta sus filas conservando los ids.
// Cualquier falla revierte la importación completa.
func (c *Coordinator) ImportSnapshot(ctx context.Context, doc []byte) (*entity.Snapshot, error) {
	snap, err := c.importSnapshot(ctx, doc)
	c.metrics.RecordBackup("import", err)
	if err != nil {
		c.log.Warn().Err(err).Msg("importación revertida")
		return nil, err
	}
	c.log.Info().Int("version", snap.Version).Int("records", snap.RecordCount).Msg("snapshot importado")
	return snap, nil
}

func (c *Coordinator) importSnapshot(ctx context.Context, doc []byte) (*entity.Snapshot, error) {
	snap, err := Decode(doc)
	if err != nil {
		return nil, err
	}
	current, err := c.versions.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	if err := CheckVersion(snap.Version, current); err != nil {
		return nil, err
	}

	rows := 0
	for _, list := range snap.Data {
		rows += len(list)
	}
	if snap.RecordCount != 0 && snap.RecordCount != rows {
		return nil, &domain.BackupFormatError{
			Reason: fmt.Sprintf("record_count %d no coincide con %d filas", snap.RecordCount, rows),
		}
	}
	snap.RecordCount = rows

	err = c.tx.Run(ctx, func(r repository.Repos) error {
		tables := r.Snapshots.Tables()
		known := make(map[string]bool, len(tables))
		for _, t := range tables {
			known[t] = true
		}
		for name := range snap.Data {
			if !known[name] {
				return &domain.BackupFormatError{Reason: fmt.Sprintf("tabla desconocida %q", name)}
			}
		}

		now := c.now()
		for _, table := range tables {
			if _, ok := snap.Data[table]; !ok {
				continue
			}
			if _, err := r.Snapshots.TombstoneActive(ctx, table, now); err != nil {
				return err
			}
		}
		for _, table := range tables {
			for i, row := range snap.Data[table] {
				if err := r.Snapshots.Restore(ctx, table, row); err != nil {
					return fmt.Errorf("restore %s[%d]: %w", table, i, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// CreateBackup exporta y escribe el documento en el almacén de archivos una vez terminada la
// lectura. Una falla de escritura se reporta como *domain.SideEffectError.
func (c *Coordinator) CreateBackup(ctx context.Context) (entity.BackupHandle, error) {
	snap, err := c.ExportSnapshot(ctx)
	if err != nil {
		return entity.BackupHandle{}, err
	}
	data, err := Encode(snap)
	if err != nil {
		return entity.BackupHandle{}, fmt.Errorf("encode snapshot: %w", err)
	}
	name := NameFor(snap.Timestamp)
	p, err := c.store.Write(name, data)
	c.metrics.RecordBackup("write", err)
	if err != nil {
		c.log.Error().Err(err).Str("name", name).Msg("no se pudo escribir el respaldo")
		return entity.BackupHandle{}, &domain.SideEffectError{Op: "write backup", Err: err}
	}
	h := entity.BackupHandle{
		Name:        name,
		Path:        p,
		Version:     snap.Version,
		CreatedAt:   snap.Timestamp,
		RecordCount: snap.RecordCount,
		Size:        int64(len(data)),
	}
	c.log.Info().Str("name", name).Int("records", h.RecordCount).Msg("respaldo creado")
	return h, nil
}

// RestoreBackup importa un respaldo guardado por nombre.
func (c *Coordinator) RestoreBackup(ctx context.Context, name string) (*entity.Snapshot, error) {
	data, err := c.store.Read(name)
	if err != nil {
		return nil, err
	}
	return c.ImportSnapshot(ctx, data)
}

// ListBackups respaldos guardados, más recientes primero.
func (c *Coordinator) ListBackups(ctx context.Context) ([]entity.BackupHandle, error) {
	return c.store.List()
}
