package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

var categoryColumns = []string{"id", "name", "created_at", "updated_at", "deleted_at"}

// CategoryRepo implementación del puerto CategoryRepository.
type CategoryRepo struct {
	q Querier
	d Dialect
}

// NewCategoryRepository construye el adaptador (pool o tx).
func NewCategoryRepository(q Querier, d Dialect) *CategoryRepo {
	return &CategoryRepo{q: q, d: d}
}

func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	stmt := r.d.Builder().Insert("categories").Columns(categoryColumns...).Values(
		c.ID, c.Name, utc(c.CreatedAt), utc(c.UpdatedAt), nullTime(c.Lifecycle.DeletedAtPtr()),
	)
	_, err := exec(ctx, r.q, "insert category", Keyed{ID: c.ID, Stmt: stmt})
	return err
}

func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	b := whereActive(r.d.Builder().Select(categoryColumns...).From("categories").Where(sq.Eq{"id": id}))
	row, err := queryRow(ctx, r.q, "get category", b)
	if err != nil {
		return nil, err
	}
	c, err := scanCategory(row)
	if err != nil {
		return nil, notFoundOr("category", id, "get category", err)
	}
	return c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]*entity.Category, error) {
	b := whereActive(r.d.Builder().Select(categoryColumns...).From("categories")).OrderBy("name ASC")
	rows, err := queryRows(ctx, r.q, "list categories", b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, classify("scan category", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list categories", err)
	}
	return list, nil
}

func (r *CategoryRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	stmt := r.d.Builder().Update("categories").
		Set("deleted_at", utc(at)).
		Set("updated_at", utc(at)).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	n, err := exec(ctx, r.q, "delete category", stmt)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("category", id)
	}
	return nil
}

func scanCategory(s scanner) (*entity.Category, error) {
	var (
		c         entity.Category
		deletedAt sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	c.Lifecycle = entity.LifecycleFrom(timePtr(deletedAt))
	return &c, nil
}
