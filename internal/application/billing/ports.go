package billing

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// TxRunner ejecuta una función dentro de una transacción con todos los repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repos) error) error
	Read(ctx context.Context, fn func(repos repository.Repos) error) error
}

// StockLedger escrituras de stock que la facturación hace dentro de su propia transacción.
// Lo implementa *inventory.Ledger.
type StockLedger interface {
	AddStockInTx(ctx context.Context, r repository.Repos, itemID string, qty, rate decimal.Decimal, ref entity.Reference) (inventory.Change, error)
	RemoveStockInTx(ctx context.Context, r repository.Repos, itemID string, qty decimal.Decimal, ref entity.Reference) (inventory.Change, error)
	SetStockInTx(ctx context.Context, r repository.Repos, itemID string, newQty decimal.Decimal, reason string) (inventory.Change, bool, error)
	BulkAdjustInTx(ctx context.Context, r repository.Repos, entries []domaininv.Entry, ref entity.Reference) ([]inventory.Change, error)
	Record(changes ...inventory.Change)
}

// BalanceAdjuster ajuste del saldo de un tercero dentro de la transacción del llamador.
type BalanceAdjuster interface {
	AdjustBalanceInTx(ctx context.Context, r repository.Repos, partyID string, delta decimal.Decimal) (*entity.Party, error)
}

// AlertSink recibe, después del commit, los ítems que pasaron a stock bajo o agotado.
type AlertSink interface {
	EmitStockAlerts(ctx context.Context, changes []inventory.Change) error
}
