// Package app arma todos los componentes con dependencias explícitas.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/Inventario-ledger/internal/application/backup"
	"github.com/jhoicas/Inventario-ledger/internal/application/billing"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/sqlstore"
	httpRouter "github.com/jhoicas/Inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"github.com/jhoicas/Inventario-ledger/pkg/metrics"
	"github.com/spf13/afero"
)

// Nombres de componentes reportados por Init.
const (
	ComponentStorage = "storage"
	ComponentBackups = "backups"
)

// InitResult resultado de inicializar un componente. Si un componente requerido falla, el
// proceso no debe arrancar; uno opcional deja la aplicación en modo degradado.
type InitResult struct {
	Component string
	Required  bool
	Err       error
}

// Container componentes construidos.
type Container struct {
	Config  *config.Config
	Log     *logger.Logger
	Metrics *metrics.Metrics

	Engine        *sqlstore.Engine
	Tx            *sqlstore.TxRunner
	Ledger        *inventory.Ledger
	Replenishment *inventory.ReplenishmentUseCase
	Balances      *billing.BalanceLedger
	Coordinator   *billing.Coordinator
	Items         *usecase.ItemUseCase
	Parties       *usecase.PartyUseCase
	Categories    *usecase.CategoryUseCase
	Notifications *usecase.NotificationUseCase
	BackupStore   *backup.FileStore
	Backup        *backup.Coordinator
}

// Options permite sustituir piezas en tests (sistema de archivos de respaldos, registro de métricas).
type Options struct {
	Fs      afero.Fs
	Metrics *metrics.Metrics
}

// New construye el grafo de componentes sin tocar el disco ni la red.
func New(cfg *config.Config, log *logger.Logger, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("app: configuración requerida")
	}
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New("ledger")
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	engine, err := sqlstore.New(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	tx := sqlstore.NewTxRunner(engine)

	ledger := inventory.NewLedger(tx, m, log)
	balances := billing.NewBalanceLedger(tx, log)
	notifications := usecase.NewNotificationUseCase(tx, log)
	store := backup.NewFileStore(fs, cfg.Backup.Dir)

	return &Container{
		Config:        cfg,
		Log:           log,
		Metrics:       m,
		Engine:        engine,
		Tx:            tx,
		Ledger:        ledger,
		Replenishment: inventory.NewReplenishmentUseCase(tx),
		Balances:      balances,
		Coordinator:   billing.NewCoordinator(tx, ledger, balances, notifications, m, log),
		Items:         usecase.NewItemUseCase(tx, ledger),
		Parties:       usecase.NewPartyUseCase(tx),
		Categories:    usecase.NewCategoryUseCase(tx),
		Notifications: notifications,
		BackupStore:   store,
		Backup:        backup.NewCoordinator(tx, engine, store, m, log),
	}, nil
}

// Init abre el almacenamiento, aplica migraciones y prepara el directorio de respaldos.
// No se detiene ante el primer error: devuelve el resultado de cada componente.
func (c *Container) Init(ctx context.Context) []InitResult {
	results := []InitResult{
		{Component: ComponentStorage, Required: true, Err: c.Engine.Init(ctx)},
		{Component: ComponentBackups, Required: false, Err: c.BackupStore.Ensure()},
	}
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		ev := c.Log.Warn()
		if r.Required {
			ev = c.Log.Error()
		}
		ev.Err(r.Err).Str("component", r.Component).Bool("required", r.Required).Msg("inicialización fallida")
	}
	return results
}

// Fatal primer error de un componente requerido, o nil.
func Fatal(results []InitResult) error {
	for _, r := range results {
		if r.Required && r.Err != nil {
			return fmt.Errorf("%s: %w", r.Component, r.Err)
		}
	}
	return nil
}

// RouterDeps dependencias del adaptador HTTP.
func (c *Container) RouterDeps() httpRouter.RouterDeps {
	return httpRouter.RouterDeps{
		AppName:        c.Config.App.Name,
		ItemUC:         c.Items,
		Ledger:         c.Ledger,
		Replenishment:  c.Replenishment,
		Coordinator:    c.Coordinator,
		Balances:       c.Balances,
		PartyUC:        c.Parties,
		CategoryUC:     c.Categories,
		NotificationUC: c.Notifications,
		Backup:         c.Backup,
		Metrics:        c.Metrics,
		Health:         c.Engine,
	}
}

// Close libera el almacenamiento.
func (c *Container) Close() error {
	return c.Engine.Close()
}
