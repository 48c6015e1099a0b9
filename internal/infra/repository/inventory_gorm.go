package repository

import (
	"context"
	"fmt"

	"agritech/internal/domain/model"
	repo "agritech/internal/repository"

	"gorm.io/gorm"
)

// InventoryGormRepository adjusts products.stock in place. Soft-deleted
// products are excluded by the Product model scope.
type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// Reserve takes qty units in one conditional UPDATE, so two orders racing for
// the last units cannot both succeed. false means not enough stock.
func (r *InventoryGormRepository) Reserve(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("reserve: quantity must be positive, got %d", qty)
	}
	n, err := r.adjust(ctx, productID, -qty, "stock >= ?", qty)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release puts qty units back, e.g. after a cancellation.
func (r *InventoryGormRepository) Release(ctx context.Context, productID int64, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("release: quantity must be positive, got %d", qty)
	}
	n, err := r.adjust(ctx, productID, qty, "")
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) adjust(ctx context.Context, productID, delta int64, guard string, args ...interface{}) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", productID)
	if guard != "" {
		q = q.Where(guard, args...)
	}
	res := q.Update("stock", gorm.Expr("stock + ?", delta))
	return res.RowsAffected, res.Error
}
