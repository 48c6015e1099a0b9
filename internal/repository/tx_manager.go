package repository

import "context"

// repositories bound to one transaction
type TxRepos interface {
	Orders() OrderRepository
	Products() ProductRepository
	Inventory() InventoryRepository
	AuditLogs() AuditLogRepository
}

// hides begin/commit/rollback from usecases
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
