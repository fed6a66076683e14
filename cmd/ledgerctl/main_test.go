package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jhoicas/Inventario-ledger/internal/app"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/sqlstore/sqlstoretest"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContainer(t *testing.T) *app.Container {
	t.Helper()
	cfg := &config.Config{DB: sqlstoretest.Config(t), Backup: config.BackupConfig{Dir: "/b"}}
	c, err := app.New(cfg, logger.Nop(), app.Options{Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	require.NoError(t, app.Fatal(c.Init(context.Background())))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRun_ExportImportYConciliacion(t *testing.T) {
	ctx := context.Background()
	c := newContainer(t)
	item, err := c.Items.Create(ctx, dto.CreateItemRequest{SKU: "A", Name: "A", CostPrice: decimal.NewFromInt(2), OpeningStock: decimal.NewFromInt(4)})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(ctx, c, "export", nil, &out))
	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o600))

	out.Reset()
	require.NoError(t, run(ctx, c, "import", []string{"-file", path}, &out))
	var res map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.EqualValues(t, 2, res["record_count"], "ítem y movimiento de apertura")

	out.Reset()
	require.NoError(t, run(ctx, c, "reconcile", []string{"-item", item.ID}, &out))
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, true, res["consistent"])
}

func TestRun_BackupYRestore(t *testing.T) {
	ctx := context.Background()
	c := newContainer(t)

	var out bytes.Buffer
	require.NoError(t, run(ctx, c, "backup", nil, &out))
	var h map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &h))

	out.Reset()
	require.NoError(t, run(ctx, c, "restore", []string{"-name", h["name"].(string)}, &out))

	out.Reset()
	require.NoError(t, run(ctx, c, "overdue", []string{"-as-of", "2030-01-01T00:00:00Z"}, &out))
	var res map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.EqualValues(t, 0, res["marked"])
}

func TestRun_Errores(t *testing.T) {
	ctx := context.Background()
	c := newContainer(t)
	var out bytes.Buffer

	assert.Error(t, run(ctx, c, "restore", nil, &out))
	assert.Error(t, run(ctx, c, "import", nil, &out))
	assert.Error(t, run(ctx, c, "reconcile", nil, &out))
	assert.Error(t, run(ctx, c, "overdue", []string{"-as-of", "ayer"}, &out))
	assert.Error(t, run(ctx, c, "desconocido", nil, &out))
}
