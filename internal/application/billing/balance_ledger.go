package billing

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// BalanceLedger mantiene el saldo pendiente en caché de cada tercero.
type BalanceLedger struct {
	tx  TxRunner
	log *logger.Logger
	now func() time.Time
}

// NewBalanceLedger construye el ledger de saldos.
func NewBalanceLedger(tx TxRunner, log *logger.Logger) *BalanceLedger {
	if log == nil {
		log = logger.Nop()
	}
	return &BalanceLedger{
		tx:  tx,
		log: log.Component("billing.balance"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// AdjustBalance suma delta (positivo o negativo) al saldo del tercero en su propia transacción.
func (b *BalanceLedger) AdjustBalance(ctx context.Context, partyID string, delta decimal.Decimal) (*entity.Party, error) {
	var party *entity.Party
	err := b.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		party, err = b.AdjustBalanceInTx(ctx, r, partyID, delta)
		return err
	})
	return party, err
}

// AdjustBalanceInTx como AdjustBalance dentro de la transacción del llamador.
// NotFound si el tercero no existe o está borrado.
func (b *BalanceLedger) AdjustBalanceInTx(ctx context.Context, r repository.Repos, partyID string, delta decimal.Decimal) (*entity.Party, error) {
	party, err := r.Parties.GetForUpdate(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if delta.IsZero() {
		return party, nil
	}
	now := b.now()
	balance := party.OutstandingBalance.Add(delta)
	if err := r.Parties.UpdateBalance(ctx, party.ID, balance, now); err != nil {
		return nil, err
	}
	party.OutstandingBalance = balance
	party.UpdatedAt = now
	return party, nil
}

// Reconcile recalcula el saldo desde facturas y abonos activos y lo compara con el valor en caché.
// Solo reporta; nunca corrige.
func (b *BalanceLedger) Reconcile(ctx context.Context, partyID string) (entity.BalanceCheck, error) {
	var check entity.BalanceCheck
	err := b.tx.Read(ctx, func(r repository.Repos) error {
		party, err := r.Parties.GetByID(ctx, partyID)
		if err != nil {
			return err
		}
		invoices, err := r.Invoices.ListByParty(ctx, partyID)
		if err != nil {
			return err
		}
		payments, err := r.Payments.ListByParty(ctx, partyID)
		if err != nil {
			return err
		}
		check = RecomputeBalance(party, invoices, payments)
		return nil
	})
	if err != nil {
		return entity.BalanceCheck{}, err
	}
	if !check.Consistent() {
		b.log.Warn().
			Str("party_id", partyID).
			Str("cached", check.Cached.String()).
			Str("recomputed", check.Recomputed.String()).
			Msg("saldo del tercero no concilia")
	}
	return check, nil
}

// RecomputeBalance Σ(total de facturas que afectan saldo) − Σ(abonos activos).
func RecomputeBalance(party *entity.Party, invoices []*entity.Invoice, payments []*entity.Payment) entity.BalanceCheck {
	sum := decimal.Zero
	for _, inv := range invoices {
		if inv.AffectsBalance() {
			sum = sum.Add(inv.Total)
		}
	}
	for _, p := range payments {
		if p.Lifecycle.IsActive() {
			sum = sum.Sub(p.Amount)
		}
	}
	return entity.BalanceCheck{
		PartyID:    party.ID,
		Cached:     party.OutstandingBalance,
		Recomputed: sum,
		Delta:      party.OutstandingBalance.Sub(sum),
	}
}
