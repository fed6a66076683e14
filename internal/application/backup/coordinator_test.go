package backup_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jhoicas/Inventario-ledger/internal/application/backup"
	"github.com/jhoicas/Inventario-ledger/internal/application/billing"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/sqlstore"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/sqlstore/sqlstoretest"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type store struct {
	engine   *sqlstore.Engine
	tx       *sqlstore.TxRunner
	ledger   *inventory.Ledger
	balances *billing.BalanceLedger
	backup   *backup.Coordinator
}

func newStore(t *testing.T, fs afero.Fs) *store {
	t.Helper()
	engine, tx := sqlstoretest.Open(t)
	return &store{
		engine:   engine,
		tx:       tx,
		ledger:   inventory.NewLedger(tx, nil, logger.Nop()),
		balances: billing.NewBalanceLedger(tx, logger.Nop()),
		backup:   backup.NewCoordinator(tx, engine, backup.NewFileStore(fs, "/backups"), nil, logger.Nop()),
	}
}

// seed dos ítems, un cliente, una venta con abono parcial. Devuelve el id del cliente.
func seed(t *testing.T, s *store) string {
	t.Helper()
	ctx := context.Background()
	items := usecase.NewItemUseCase(s.tx, s.ledger)
	parties := usecase.NewPartyUseCase(s.tx)
	coord := billing.NewCoordinator(s.tx, s.ledger, s.balances, nil, nil, logger.Nop())

	a, err := items.Create(ctx, dto.CreateItemRequest{SKU: "A", Name: "Arroz", CostPrice: d("100"), SalePrice: d("150"), OpeningStock: d("20")})
	require.NoError(t, err)
	_, err = items.Create(ctx, dto.CreateItemRequest{SKU: "B", Name: "Frijol", CostPrice: d("10"), SalePrice: d("12.5"), OpeningStock: d("3")})
	require.NoError(t, err)
	customer, err := parties.Create(ctx, dto.CreatePartyRequest{Name: "Tienda La Esquina", Type: "customer"})
	require.NoError(t, err)

	inv, err := coord.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		PartyID: customer.ID,
		Lines:   []dto.InvoiceLineRequest{{ItemID: a.ID, Quantity: d("5"), UnitPrice: d("150")}},
	})
	require.NoError(t, err)
	_, _, err = coord.RecordPayment(ctx, dto.RecordPaymentRequest{InvoiceID: inv.ID, Amount: d("250")})
	require.NoError(t, err)
	return customer.ID
}

func countActive(t *testing.T, s *store, table string) int {
	t.Helper()
	ctx := context.Background()
	var n int
	require.NoError(t, s.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		n, err = r.Snapshots.CountActive(ctx, table)
		return err
	}))
	return n
}

func TestSnapshot_IdaYVueltaEnAlmacenNuevo(t *testing.T) {
	ctx := context.Background()
	src := newStore(t, afero.NewMemMapFs())
	partyID := seed(t, src)

	snap, err := src.backup.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Version)
	assert.Positive(t, snap.Size)
	assert.Len(t, snap.Data["items"], 2)
	assert.Len(t, snap.Data["invoices"], 1)
	assert.Len(t, snap.Data["payments"], 1)

	doc, err := backup.Encode(snap)
	require.NoError(t, err)

	dst := newStore(t, afero.NewMemMapFs())
	got, err := dst.backup.ImportSnapshot(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, snap.RecordCount, got.RecordCount)

	for table, rows := range snap.Data {
		assert.Equal(t, len(rows), countActive(t, dst, table), "tabla %s", table)
	}

	before, err := src.ledger.Valuation(ctx)
	require.NoError(t, err)
	after, err := dst.ledger.Valuation(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.ItemCount, after.ItemCount)
	assert.True(t, before.CostValue.Equal(after.CostValue))
	assert.True(t, before.SaleValue.Equal(after.SaleValue))

	check, err := dst.balances.Reconcile(ctx, partyID)
	require.NoError(t, err)
	assert.True(t, check.Consistent())
	assert.True(t, check.Cached.Equal(d("500")))

	items, err := dst.ledger.ListItems(ctx, entity.ItemFilter{})
	require.NoError(t, err)
	for _, it := range items {
		sc, err := dst.ledger.ReconcileStock(ctx, it.ID)
		require.NoError(t, err)
		assert.True(t, sc.Consistent(), "ítem %s", it.SKU)
	}
}

func TestSnapshot_ImportarSobreDatosExistentesReemplaza(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, afero.NewMemMapFs())
	seed(t, s)

	snap, err := s.backup.ExportSnapshot(ctx)
	require.NoError(t, err)
	doc, err := backup.Encode(snap)
	require.NoError(t, err)

	// agrega un ítem después del snapshot; la importación lo marca como borrado
	_, err = usecase.NewItemUseCase(s.tx, s.ledger).Create(ctx, dto.CreateItemRequest{SKU: "C", Name: "Café"})
	require.NoError(t, err)
	assert.Equal(t, 3, countActive(t, s, "items"))

	_, err = s.backup.ImportSnapshot(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 2, countActive(t, s, "items"))
}

func TestSnapshot_FilaInvalidaRevierteLaImportacion(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, afero.NewMemMapFs())
	seed(t, s)

	doc := []byte(`{
		"version": 1,
		"timestamp": "2024-01-01T00:00:00Z",
		"data": {
			"parties": [],
			"items": [{"id": "x1", "sku": "X", "name": "X", "unit": "unit", "cost_price": "no-es-numero",
				"sale_price": "1", "current_stock": "0", "min_stock": "0", "max_stock": "0",
				"created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"}]
		}
	}`)
	_, err := s.backup.ImportSnapshot(ctx, doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBackupFormat), "err = %v", err)

	assert.Equal(t, 2, countActive(t, s, "items"), "el tombstone previo se revierte")
	assert.Equal(t, 1, countActive(t, s, "parties"))
}

func TestSnapshot_Rechazos(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, afero.NewMemMapFs())

	cases := map[string]string{
		"json inválido":       `{"version": `,
		"sin data":            `{"version": 1, "timestamp": "2024-01-01T00:00:00Z"}`,
		"versión futura":      `{"version": 99, "timestamp": "2024-01-01T00:00:00Z", "data": {}}`,
		"versión cero":        `{"version": 0, "timestamp": "2024-01-01T00:00:00Z", "data": {}}`,
		"fila sin id":         `{"version": 1, "timestamp": "2024-01-01T00:00:00Z", "data": {"categories": [{"name": "x"}]}}`,
		"tabla desconocida":   `{"version": 1, "timestamp": "2024-01-01T00:00:00Z", "data": {"users": []}}`,
		"record_count errado": `{"version": 1, "timestamp": "2024-01-01T00:00:00Z", "record_count": 5, "data": {"categories": []}}`,
		"valor objeto":        `{"version": 1, "timestamp": "2024-01-01T00:00:00Z", "data": {"categories": [{"id": "c", "name": {}}]}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.backup.ImportSnapshot(ctx, []byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrBackupFormat), "err = %v", err)
		})
	}
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, backup.CheckVersion(1, 3))
	assert.NoError(t, backup.CheckVersion(3, 3))
	assert.Error(t, backup.CheckVersion(4, 3))
	assert.Error(t, backup.CheckVersion(0, 3))
}

func TestBackup_CrearListarRestaurar(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	s := newStore(t, fs)
	seed(t, s)

	h, err := s.backup.CreateBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, h.Version)
	assert.Positive(t, h.Size)

	ok, err := afero.Exists(fs, h.Path)
	require.NoError(t, err)
	assert.True(t, ok)

	var doc map[string]any
	raw, err := afero.ReadFile(fs, h.Path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "data")

	list, err := s.backup.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, h.Name, list[0].Name)
	assert.Equal(t, h.RecordCount, list[0].RecordCount)

	snap, err := s.backup.RestoreBackup(ctx, h.Name)
	require.NoError(t, err)
	assert.Equal(t, h.RecordCount, snap.RecordCount)
	assert.Equal(t, 2, countActive(t, s, "items"))

	_, err = s.backup.RestoreBackup(ctx, "backup-inexistente.json")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestBackup_FallaDeEscrituraEsEfectoSecundario(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, afero.NewReadOnlyFs(afero.NewMemMapFs()))

	_, err := s.backup.CreateBackup(ctx)
	require.Error(t, err)
	var se *domain.SideEffectError
	assert.True(t, errors.As(err, &se), "err = %v", err)
}
