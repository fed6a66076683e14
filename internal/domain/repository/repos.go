package repository

// Repos agrupa los repositorios atados a una misma transacción (o al pool).
type Repos struct {
	Items         ItemRepository
	Movements     StockMovementRepository
	Invoices      InvoiceRepository
	Parties       PartyRepository
	Payments      PaymentRepository
	Categories    CategoryRepository
	Notifications NotificationRepository
	Snapshots     SnapshotRepository
}
