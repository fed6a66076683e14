package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.PartyRepository = (*PartyRepo)(nil)

var partyColumns = []string{
	"id", "name", "type", "phone", "email", "outstanding_balance", "created_at", "updated_at", "deleted_at",
}

// PartyRepo implementación del puerto PartyRepository (clientes y proveedores).
type PartyRepo struct {
	q Querier
	d Dialect
}

// NewPartyRepository construye el adaptador (pool o tx).
func NewPartyRepository(q Querier, d Dialect) *PartyRepo {
	return &PartyRepo{q: q, d: d}
}

// Create persiste un nuevo tercero.
func (r *PartyRepo) Create(ctx context.Context, p *entity.Party) error {
	stmt := r.d.Builder().Insert("parties").Columns(partyColumns...).Values(
		p.ID, p.Name, string(p.Type), p.Phone, p.Email, p.OutstandingBalance,
		utc(p.CreatedAt), utc(p.UpdatedAt), nullTime(p.Lifecycle.DeletedAtPtr()),
	)
	_, err := exec(ctx, r.q, "insert party", Keyed{ID: p.ID, Stmt: stmt})
	return err
}

// GetByID obtiene un tercero activo por ID.
func (r *PartyRepo) GetByID(ctx context.Context, id string) (*entity.Party, error) {
	return r.getOne(ctx, "get party", whereActive(r.selectParties().Where(sq.Eq{"id": id})), id)
}

// GetForUpdate como GetByID pero con bloqueo de fila.
func (r *PartyRepo) GetForUpdate(ctx context.Context, id string) (*entity.Party, error) {
	return r.getOne(ctx, "get party for update", r.d.forUpdate(whereActive(r.selectParties().Where(sq.Eq{"id": id}))), id)
}

func (r *PartyRepo) getOne(ctx context.Context, op string, b sq.SelectBuilder, id string) (*entity.Party, error) {
	row, err := queryRow(ctx, r.q, op, b)
	if err != nil {
		return nil, err
	}
	p, err := scanParty(row)
	if err != nil {
		return nil, notFoundOr("party", id, op, err)
	}
	return p, nil
}

// Update actualiza datos de contacto. El saldo solo cambia por UpdateBalance.
func (r *PartyRepo) Update(ctx context.Context, p *entity.Party) error {
	stmt := r.d.Builder().Update("parties").
		Set("name", p.Name).
		Set("type", string(p.Type)).
		Set("phone", p.Phone).
		Set("email", p.Email).
		Set("updated_at", utc(p.UpdatedAt)).
		Where(sq.Eq{"id": p.ID, "deleted_at": nil})
	return r.mustAffect(ctx, "update party", p.ID, stmt)
}

// UpdateBalance fija el saldo pendiente en caché.
func (r *PartyRepo) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) error {
	stmt := r.d.Builder().Update("parties").
		Set("outstanding_balance", balance).
		Set("updated_at", utc(at)).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	return r.mustAffect(ctx, "update party balance", id, stmt)
}

// List terceros activos, opcionalmente filtrados por tipo.
func (r *PartyRepo) List(ctx context.Context, partyType entity.PartyType, limit, offset int) ([]*entity.Party, error) {
	b := whereActive(r.selectParties())
	if partyType != "" {
		b = b.Where(sq.Eq{"type": string(partyType)})
	}
	b = b.OrderBy("name ASC", "id ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
		if offset > 0 {
			b = b.Offset(uint64(offset))
		}
	}
	rows, err := queryRows(ctx, r.q, "list parties", b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*entity.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, classify("scan party", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list parties", err)
	}
	return list, nil
}

// SoftDelete marca el tercero como borrado.
func (r *PartyRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	stmt := r.d.Builder().Update("parties").
		Set("deleted_at", utc(at)).
		Set("updated_at", utc(at)).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	return r.mustAffect(ctx, "delete party", id, stmt)
}

func (r *PartyRepo) mustAffect(ctx context.Context, op, id string, stmt sq.Sqlizer) error {
	n, err := exec(ctx, r.q, op, stmt)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("party", id)
	}
	return nil
}

func (r *PartyRepo) selectParties() sq.SelectBuilder {
	return r.d.Builder().Select(partyColumns...).From("parties")
}

func scanParty(s scanner) (*entity.Party, error) {
	var (
		p         entity.Party
		partyType string
		balance   decimal.NullDecimal
		deletedAt sql.NullTime
	)
	if err := s.Scan(&p.ID, &p.Name, &partyType, &p.Phone, &p.Email, &balance,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	p.Type = entity.PartyType(partyType)
	p.OutstandingBalance = dec(balance)
	p.Lifecycle = entity.LifecycleFrom(timePtr(deletedAt))
	return &p, nil
}
