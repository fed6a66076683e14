package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"golang.org/x/sync/semaphore"
)

// TxRunner ejecuta callbacks dentro de una transacción, uno a la vez (cola de un solo escritor).
type TxRunner struct {
	engine *Engine
	writer *semaphore.Weighted
}

// NewTxRunner construye el runner sobre el motor.
func NewTxRunner(engine *Engine) *TxRunner {
	return &TxRunner{engine: engine, writer: semaphore.NewWeighted(1)}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Espera su turno en la cola de escritura respetando ctx.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	return r.run(ctx, nil, true, fn)
}

// Read ejecuta fn en una transacción de lectura consistente que siempre se descarta.
func (r *TxRunner) Read(ctx context.Context, fn func(repos repository.Repos) error) error {
	var opts *sql.TxOptions
	if r.engine.Dialect() == DialectPostgres {
		opts = &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}
	}
	return r.run(ctx, opts, false, fn)
}

func (r *TxRunner) run(ctx context.Context, opts *sql.TxOptions, commit bool, fn func(repository.Repos) error) error {
	if err := r.writer.Acquire(ctx, 1); err != nil {
		return &domain.StorageError{Kind: domain.StorageUnavailable, Op: "acquire writer", Err: err}
	}
	defer r.writer.Release(1)

	db, err := r.engine.DB(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify("begin", err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(r.engine.Repos(tx)); err != nil {
		return err
	}
	if !commit {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify("commit", err))
	}
	return nil
}
