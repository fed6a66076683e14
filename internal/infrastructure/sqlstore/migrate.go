package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

const migrationsTable = "schema_migrations"

// migrate aplica las migraciones embebidas en orden. Usa un handle aparte porque
// migrate.Close cierra también la base de datos subyacente.
func (e *Engine) migrate(ctx context.Context) error {
	db, err := e.openMigrationHandle(ctx)
	if err != nil {
		return err
	}

	src, err := iofs.New(migrationFS, "migrations/"+string(e.dialect))
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migration source: %w", err)
	}

	var driver database.Driver
	switch e.dialect {
	case DialectPostgres:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{MigrationsTable: migrationsTable})
	default:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: migrationsTable})
	}
	if err != nil {
		_ = db.Close()
		return classify("migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(e.dialect), driver)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			e.log.Warn().AnErr("source", srcErr).AnErr("db", dbErr).Msg("cerrar migrador")
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return classify("migrate up", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return classify("migrate version", err)
	}
	e.log.Debug().Uint("version", version).Bool("dirty", dirty).Msg("migraciones aplicadas")
	return nil
}

func (e *Engine) openMigrationHandle(ctx context.Context) (*sql.DB, error) {
	if e.dialect == DialectPostgres {
		db, err := openPostgresDB(e.cfg)
		if err != nil {
			return nil, classify("open migration handle", err)
		}
		return db, nil
	}
	db, err := sql.Open("sqlite", sqliteDSN(e.cfg))
	if err != nil {
		return nil, classify("open migration handle", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, classify("open migration handle", err)
	}
	return db, nil
}
