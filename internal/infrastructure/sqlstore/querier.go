package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

// Querier abstrae *sql.DB y *sql.Tx para que los repositorios funcionen con o sin transacción.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Dialect motor SQL subyacente.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Builder constructor de sentencias con el formato de placeholders del dialecto.
func (d Dialect) Builder() sq.StatementBuilderType {
	if d == DialectPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// forUpdate agrega el bloqueo de fila en Postgres. En SQLite la transacción ya es
// BEGIN IMMEDIATE y la cola de escritura serializa a los escritores.
func (d Dialect) forUpdate(b sq.SelectBuilder) sq.SelectBuilder {
	if d == DialectPostgres {
		return b.Suffix("FOR UPDATE")
	}
	return b
}

// digitsAfter col empieza con prefix y el resto son solo dígitos.
func (d Dialect) digitsAfter(col, prefix string) sq.Sqlizer {
	if d == DialectPostgres {
		return sq.Expr(col+" ~ ?", "^"+prefix+"[0-9]+$")
	}
	return sq.And{
		sq.Expr(col+" GLOB ?", prefix+"[0-9]*"),
		sq.Expr(col+" NOT GLOB ?", prefix+"*[^0-9]*"),
	}
}

// whereActive filtro único para excluir registros con borrado lógico.
func whereActive(b sq.SelectBuilder) sq.SelectBuilder {
	return b.Where(sq.Eq{"deleted_at": nil})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// dec normaliza un valor decimal leído como texto o NUMERIC.
func dec(nd decimal.NullDecimal) decimal.Decimal {
	if !nd.Valid {
		return decimal.Zero
	}
	return nd.Decimal
}

func utc(t time.Time) time.Time { return t.UTC() }
