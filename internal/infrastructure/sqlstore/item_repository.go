package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

var itemColumns = []string{
	"id", "sku", "name", "unit", "cost_price", "sale_price", "current_stock",
	"min_stock", "max_stock", "category_id", "created_at", "updated_at", "deleted_at",
}

// ItemRepo implementación del puerto ItemRepository (usable con pool o tx).
type ItemRepo struct {
	q Querier
	d Dialect
}

// NewItemRepository construye el adaptador de persistencia para ítems.
func NewItemRepository(q Querier, d Dialect) *ItemRepo {
	return &ItemRepo{q: q, d: d}
}

// Create persiste un nuevo ítem.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	stmt := r.d.Builder().Insert("items").Columns(itemColumns...).Values(
		item.ID, item.SKU, item.Name, item.Unit, item.CostPrice, item.SalePrice, item.CurrentStock,
		item.MinStock, item.MaxStock, nullString(item.CategoryID), utc(item.CreatedAt), utc(item.UpdatedAt),
		nullTime(item.Lifecycle.DeletedAtPtr()),
	)
	_, err := exec(ctx, r.q, "insert item", Keyed{ID: item.ID, Stmt: stmt})
	return err
}

// GetByID obtiene un ítem activo por ID.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, "get item", whereActive(r.selectItems().Where(sq.Eq{"id": id})), id)
}

// GetForUpdate como GetByID pero con bloqueo de fila.
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, "get item for update", r.d.forUpdate(whereActive(r.selectItems().Where(sq.Eq{"id": id}))), id)
}

// GetBySKU obtiene un ítem activo por SKU.
func (r *ItemRepo) GetBySKU(ctx context.Context, sku string) (*entity.Item, error) {
	return r.getOne(ctx, "get item by sku", whereActive(r.selectItems().Where(sq.Eq{"sku": sku})), sku)
}

func (r *ItemRepo) getOne(ctx context.Context, op string, b sq.SelectBuilder, key string) (*entity.Item, error) {
	row, err := queryRow(ctx, r.q, op, b)
	if err != nil {
		return nil, err
	}
	item, err := scanItem(row)
	if err != nil {
		return nil, notFoundOr("item", key, op, err)
	}
	return item, nil
}

// Update actualiza los datos maestros. No modifica stock ni costo (se manejan vía ledger).
func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	stmt := r.d.Builder().Update("items").
		Set("sku", item.SKU).
		Set("name", item.Name).
		Set("unit", item.Unit).
		Set("sale_price", item.SalePrice).
		Set("min_stock", item.MinStock).
		Set("max_stock", item.MaxStock).
		Set("category_id", nullString(item.CategoryID)).
		Set("updated_at", utc(item.UpdatedAt)).
		Where(sq.Eq{"id": item.ID, "deleted_at": nil})
	return r.mustAffect(ctx, "update item", item.ID, stmt)
}

// UpdateStock fija el stock actual. Solo lo invoca el ledger junto con su movimiento.
func (r *ItemRepo) UpdateStock(ctx context.Context, id string, stock decimal.Decimal, at time.Time) error {
	stmt := r.d.Builder().Update("items").
		Set("current_stock", stock).
		Set("updated_at", utc(at)).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	return r.mustAffect(ctx, "update item stock", id, stmt)
}

// UpdateCost actualiza solo el costo del ítem (promedio ponderado de compras).
func (r *ItemRepo) UpdateCost(ctx context.Context, id string, cost decimal.Decimal, at time.Time) error {
	stmt := r.d.Builder().Update("items").
		Set("cost_price", cost).
		Set("updated_at", utc(at)).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	return r.mustAffect(ctx, "update item cost", id, stmt)
}

// List ítems activos con filtro simple por nombre/SKU y categoría.
func (r *ItemRepo) List(ctx context.Context, filter entity.ItemFilter) ([]*entity.Item, error) {
	b := whereActive(r.selectItems())
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		b = b.Where(sq.Or{
			sq.Like{"LOWER(name)": like},
			sq.Like{"LOWER(sku)": like},
		})
	}
	if filter.CategoryID != "" {
		b = b.Where(sq.Eq{"category_id": filter.CategoryID})
	}
	b = b.OrderBy("name ASC", "id ASC")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
		if filter.Offset > 0 {
			b = b.Offset(uint64(filter.Offset))
		}
	}
	return r.list(ctx, "list items", b)
}

// ListActive todos los ítems activos (valorización, stock bajo).
func (r *ItemRepo) ListActive(ctx context.Context) ([]*entity.Item, error) {
	return r.list(ctx, "list active items", whereActive(r.selectItems()).OrderBy("name ASC", "id ASC"))
}

// SoftDelete marca el ítem como borrado; sus movimientos se conservan.
func (r *ItemRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	stmt := r.d.Builder().Update("items").
		Set("deleted_at", utc(at)).
		Set("updated_at", utc(at)).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	return r.mustAffect(ctx, "delete item", id, stmt)
}

func (r *ItemRepo) mustAffect(ctx context.Context, op, id string, stmt sq.Sqlizer) error {
	n, err := exec(ctx, r.q, op, stmt)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("item", id)
	}
	return nil
}

func (r *ItemRepo) selectItems() sq.SelectBuilder {
	return r.d.Builder().Select(itemColumns...).From("items")
}

func (r *ItemRepo) list(ctx context.Context, op string, b sq.SelectBuilder) ([]*entity.Item, error) {
	rows, err := queryRows(ctx, r.q, op, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*entity.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, classify("scan item", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*entity.Item, error) {
	var (
		it                                    entity.Item
		cost, sale, stock, minStock, maxStock decimal.NullDecimal
		category                              sql.NullString
		deletedAt                             sql.NullTime
	)
	if err := s.Scan(&it.ID, &it.SKU, &it.Name, &it.Unit, &cost, &sale, &stock, &minStock, &maxStock,
		&category, &it.CreatedAt, &it.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	it.CostPrice = dec(cost)
	it.SalePrice = dec(sale)
	it.CurrentStock = dec(stock)
	it.MinStock = dec(minStock)
	it.MaxStock = dec(maxStock)
	it.CategoryID = category.String
	it.Lifecycle = entity.LifecycleFrom(timePtr(deletedAt))
	return &it, nil
}

// notFoundOr traduce sql.ErrNoRows a NotFoundError y clasifica el resto.
func notFoundOr(entityName, id, op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(entityName, id)
	}
	return classify(op, err)
}
