package repository

import "context"

// InventoryRepository moves product stock. Only used inside a transaction.
type InventoryRepository interface {
	Reserve(ctx context.Context, productID int64, qty int64) (bool, error)
	Release(ctx context.Context, productID int64, qty int64) error
}
