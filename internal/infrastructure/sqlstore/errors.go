package sqlstore

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// errNotInitialized el motor se usó antes de Init o después de Close.
var errNotInitialized = errors.New("motor de almacenamiento no inicializado")

// classify traduce errores del driver a la taxonomía del dominio.
// Violaciones de constraint -> ConstraintViolationError; conexión -> StorageUnavailable;
// sintaxis o esquema -> StorageSchema. El resto se envuelve con la operación.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		sqliteErr  *sqlite.Error
		pgErr      *pgconn.PgError
		connectErr *pgconn.ConnectError
	)
	switch {
	case errors.As(err, &sqliteErr):
		return classifySQLite(op, sqliteErr)
	case errors.As(err, &pgErr):
		return classifyPostgres(op, pgErr)
	case errors.As(err, &connectErr),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, errNotInitialized),
		strings.Contains(err.Error(), "sql: database is closed"):
		return &domain.StorageError{Kind: domain.StorageUnavailable, Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func classifySQLite(op string, err *sqlite.Error) error {
	code := err.Code()
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return &domain.ConstraintViolationError{Constraint: "unique", Err: err}
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return &domain.ConstraintViolationError{Constraint: "foreign_key", Err: err}
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return &domain.ConstraintViolationError{Constraint: "check", Err: err}
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return &domain.ConstraintViolationError{Constraint: "not_null", Err: err}
	}
	switch code & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return &domain.ConstraintViolationError{Constraint: "constraint", Err: err}
	case sqlite3.SQLITE_ERROR:
		return &domain.StorageError{Kind: domain.StorageSchema, Op: op, Err: err}
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_IOERR,
		sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_READONLY:
		return &domain.StorageError{Kind: domain.StorageUnavailable, Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func classifyPostgres(op string, err *pgconn.PgError) error {
	switch {
	case strings.HasPrefix(err.Code, "23"):
		name := err.ConstraintName
		if name == "" {
			name = err.Code
		}
		return &domain.ConstraintViolationError{Constraint: name, Err: err}
	case strings.HasPrefix(err.Code, "42"):
		return &domain.StorageError{Kind: domain.StorageSchema, Op: op, Err: err}
	case strings.HasPrefix(err.Code, "08"), strings.HasPrefix(err.Code, "57P"):
		return &domain.StorageError{Kind: domain.StorageUnavailable, Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
