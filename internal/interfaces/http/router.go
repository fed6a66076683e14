package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/Inventario-ledger/internal/application/backup"
	"github.com/jhoicas/Inventario-ledger/internal/application/billing"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/Inventario-ledger/pkg/metrics"
)

// Pinger comprueba que el almacenamiento responde.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName        string
	ItemUC         *usecase.ItemUseCase
	Ledger         *inventory.Ledger
	Replenishment  *inventory.ReplenishmentUseCase
	Coordinator    *billing.Coordinator
	Balances       *billing.BalanceLedger
	PartyUC        *usecase.PartyUseCase
	CategoryUC     *usecase.CategoryUseCase
	NotificationUC *usecase.NotificationUseCase
	Backup         *backup.Coordinator
	Metrics        *metrics.Metrics
	Health         Pinger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Health != nil {
			if err := deps.Health.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "service": deps.AppName, "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api")

	// Items y stock
	items := api.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC, deps.Ledger, deps.Coordinator)
	items.Post("/", itemHandler.Create)
	items.Get("/", itemHandler.List)
	items.Get("/low-stock", itemHandler.LowStock)
	items.Get("/out-of-stock", itemHandler.OutOfStock)
	items.Get("/:id", itemHandler.Get)
	items.Put("/:id", itemHandler.Update)
	items.Delete("/:id", itemHandler.Delete)
	items.Post("/:id/stock", itemHandler.AdjustStock)
	items.Get("/:id/movements", itemHandler.Movements)
	items.Get("/:id/reconcile", itemHandler.Reconcile)

	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Replenishment)
	invGroup.Get("/valuation", inventoryHandler.Valuation)
	invGroup.Get("/replenishment", inventoryHandler.Replenishment)

	// Facturación
	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Coordinator)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Post("/overdue", invoiceHandler.MarkOverdue)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/finalize", invoiceHandler.Finalize)
	invoices.Post("/:id/cancel", invoiceHandler.Cancel)
	invoices.Post("/:id/payments", invoiceHandler.RecordPayment)

	parties := api.Group("/parties")
	partyHandler := NewPartyHandler(deps.PartyUC, deps.Balances)
	parties.Post("/", partyHandler.Create)
	parties.Get("/", partyHandler.List)
	parties.Get("/:id", partyHandler.Get)
	parties.Put("/:id", partyHandler.Update)
	parties.Delete("/:id", partyHandler.Delete)
	parties.Get("/:id/reconcile", partyHandler.Reconcile)

	categories := api.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories.Post("/", categoryHandler.Create)
	categories.Get("/", categoryHandler.List)
	categories.Delete("/:id", categoryHandler.Delete)

	notifications := api.Group("/notifications")
	notificationHandler := NewNotificationHandler(deps.NotificationUC)
	notifications.Get("/", notificationHandler.List)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	// Respaldos
	backups := api.Group("/backups")
	backupHandler := NewBackupHandler(deps.Backup)
	backups.Post("/", backupHandler.Create)
	backups.Get("/", backupHandler.List)
	backups.Post("/restore", backupHandler.Restore)
}
