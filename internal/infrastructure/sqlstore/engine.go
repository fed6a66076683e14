package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	_ "modernc.org/sqlite"
)

// Engine dueño del único handle de base de datos. Se construye una vez y se inyecta;
// la conexión se abre de forma perezosa y se reutiliza.
type Engine struct {
	cfg     config.DBConfig
	log     *logger.Logger
	dialect Dialect

	mu     sync.Mutex
	db     *sql.DB
	pool   *pgxpool.Pool
	closed bool
}

// New valida la configuración sin conectar.
func New(cfg config.DBConfig, log *logger.Logger) (*Engine, error) {
	if log == nil {
		log = logger.Nop()
	}
	var d Dialect
	switch cfg.Driver {
	case "", config.DriverSQLite:
		d = DialectSQLite
	case config.DriverPostgres:
		d = DialectPostgres
	default:
		return nil, fmt.Errorf("sqlstore: driver %q no soportado", cfg.Driver)
	}
	return &Engine{cfg: cfg, log: log.Component("sqlstore"), dialect: d}, nil
}

// Dialect motor configurado.
func (e *Engine) Dialect() Dialect { return e.dialect }

// Builder constructor de sentencias del dialecto.
func (e *Engine) Builder() sq.StatementBuilderType { return e.dialect.Builder() }

// DB devuelve el handle compartido, abriéndolo en el primer uso.
func (e *Engine) DB(ctx context.Context) (*sql.DB, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, classify("open", errNotInitialized)
	}
	if e.db != nil {
		return e.db, nil
	}
	db, err := e.open(ctx)
	if err != nil {
		return nil, err
	}
	e.db = db
	return db, nil
}

func (e *Engine) open(ctx context.Context) (*sql.DB, error) {
	switch e.dialect {
	case DialectPostgres:
		pool, db, err := openPostgres(ctx, e.cfg)
		if err != nil {
			return nil, classify("open postgres", err)
		}
		e.pool = pool
		return db, nil
	default:
		if dir := filepath.Dir(e.cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, classify("open sqlite", err)
			}
		}
		db, err := sql.Open("sqlite", sqliteDSN(e.cfg))
		if err != nil {
			return nil, classify("open sqlite", err)
		}
		maxConns := e.cfg.MaxConns
		if maxConns <= 0 {
			maxConns = 1
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
		db.SetConnMaxLifetime(time.Hour)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, classify("ping sqlite", err)
		}
		return db, nil
	}
}

// sqliteDSN archivo con claves foráneas, WAL, busy_timeout y BEGIN IMMEDIATE.
func sqliteDSN(cfg config.DBConfig) string {
	timeout := cfg.BusyTimeoutMS
	if timeout <= 0 {
		timeout = 5000
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", timeout))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	q.Set("_time_format", "sqlite")
	return "file:" + cfg.Path + "?" + q.Encode()
}

// Init abre la conexión y aplica las migraciones pendientes, cada una una sola vez.
func (e *Engine) Init(ctx context.Context) error {
	if _, err := e.DB(ctx); err != nil {
		return err
	}
	if err := e.migrate(ctx); err != nil {
		return err
	}
	v, err := e.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	e.log.Info().Str("dialect", string(e.dialect)).Int("schema_version", v).Msg("almacenamiento listo")
	return nil
}

// Close cierra el handle; usos posteriores fallan con StorageUnavailable.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	var err error
	if e.db != nil {
		err = e.db.Close()
		e.db = nil
	}
	if e.pool != nil {
		e.pool.Close()
		e.pool = nil
	}
	return err
}

// Ping verifica que el almacenamiento responda.
func (e *Engine) Ping(ctx context.Context) error {
	db, err := e.DB(ctx)
	if err != nil {
		return err
	}
	return classify("ping", db.PingContext(ctx))
}

// SchemaVersion versión de migración aplicada (0 si aún no hay esquema).
func (e *Engine) SchemaVersion(ctx context.Context) (int, error) {
	db, err := e.DB(ctx)
	if err != nil {
		return 0, err
	}
	query, args, err := e.Builder().Select("version").From(migrationsTable).Where(sq.Eq{"dirty": false}).Limit(1).ToSql()
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	var v int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, classify("schema version", err)
	}
	return int(v), nil
}

// Repos repositorios atados al querier dado (pool o tx).
func (e *Engine) Repos(q Querier) repository.Repos {
	return repository.Repos{
		Items:         NewItemRepository(q, e.dialect),
		Movements:     NewStockMovementRepository(q, e.dialect),
		Invoices:      NewInvoiceRepository(q, e.dialect),
		Parties:       NewPartyRepository(q, e.dialect),
		Payments:      NewPaymentRepository(q, e.dialect),
		Categories:    NewCategoryRepository(q, e.dialect),
		Notifications: NewNotificationRepository(q, e.dialect),
		Snapshots:     NewSnapshotRepository(q, e.dialect),
	}
}

// Result resultado discriminado de Execute: RowSet o WriteResult.
type Result interface{ isResult() }

// RowSet filas de una consulta con los nombres de columna.
type RowSet struct {
	Columns []string
	Rows    [][]any
}

// WriteResult efecto de una sentencia de escritura.
type WriteResult struct {
	InsertedID   string
	RowsAffected int64
}

func (RowSet) isResult()      {}
func (WriteResult) isResult() {}

// Keyed asocia una escritura con el id que el llamador asignó de antemano.
type Keyed struct {
	ID   string
	Stmt sq.Sqlizer
}

func (k Keyed) ToSql() (string, []any, error) { return k.Stmt.ToSql() }

// Execute ejecuta stmt sobre q. Las consultas SELECT devuelven RowSet; el resto WriteResult.
func Execute(ctx context.Context, q Querier, stmt sq.Sqlizer) (Result, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	if _, ok := stmt.(sq.SelectBuilder); ok {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, classify("query", err)
		}
		defer rows.Close()
		return collect(rows)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, classify("exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, classify("rows affected", err)
	}
	out := WriteResult{RowsAffected: n}
	if k, ok := stmt.(Keyed); ok {
		out.InsertedID = k.ID
	}
	return out, nil
}

// Execute ejecuta stmt sobre el handle compartido.
func (e *Engine) Execute(ctx context.Context, stmt sq.Sqlizer) (Result, error) {
	db, err := e.DB(ctx)
	if err != nil {
		return nil, err
	}
	return Execute(ctx, db, stmt)
}

func collect(rows *sql.Rows) (RowSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return RowSet{}, classify("columns", err)
	}
	set := RowSet{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return RowSet{}, classify("scan", err)
		}
		set.Rows = append(set.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return RowSet{}, classify("rows", err)
	}
	return set, nil
}

// exec atajo para escrituras dentro de los repositorios.
func exec(ctx context.Context, q Querier, op string, stmt sq.Sqlizer) (int64, error) {
	res, err := Execute(ctx, q, stmt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.(WriteResult).RowsAffected, nil
}

func queryRows(ctx context.Context, q Querier, op string, b sq.SelectBuilder) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	return rows, nil
}

func queryRow(ctx context.Context, q Querier, op string, b sq.SelectBuilder) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return q.QueryRowContext(ctx, query, args...), nil
}
