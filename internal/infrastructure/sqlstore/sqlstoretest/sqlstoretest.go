// Package sqlstoretest abre un almacenamiento SQLite migrado en un directorio temporal para tests.
package sqlstoretest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/sqlstore"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/stretchr/testify/require"
)

// Config configuración SQLite apuntando a un archivo dentro de t.TempDir().
func Config(t *testing.T) config.DBConfig {
	t.Helper()
	return config.DBConfig{
		Driver:        config.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "ledger.db"),
		BusyTimeoutMS: 5000,
		MaxConns:      1,
	}
}

// Open crea el motor, aplica las migraciones y lo cierra al terminar el test.
func Open(t *testing.T) (*sqlstore.Engine, *sqlstore.TxRunner) {
	t.Helper()
	engine, err := sqlstore.New(Config(t), logger.Nop())
	require.NoError(t, err)
	require.NoError(t, engine.Init(context.Background()))
	t.Cleanup(func() { _ = engine.Close() })
	return engine, sqlstore.NewTxRunner(engine)
}
