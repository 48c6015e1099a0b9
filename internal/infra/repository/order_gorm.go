package repository

import (
	"context"

	"agritech/internal/domain/model"
	repo "agritech/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Create(ctx context.Context, o *model.Order) error {
	return translate(r.db.WithContext(ctx).Create(o).Error)
}

func (r *OrderGormRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *OrderGormRepository) FindByTransactionID(ctx context.Context, transactionID string) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// newest first
func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderFilter) ([]model.Order, error) {
	tx := r.db.WithContext(ctx).Model(&model.Order{})
	if f.BuyerID != nil {
		tx = tx.Where("buyer_id = ?", *f.BuyerID)
	}
	if f.SellerID != nil {
		tx = tx.Where("seller_id = ?", *f.SellerID)
	}

	var orders []model.Order
	if err := tx.Order("order_date desc").Order("id desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderGormRepository) UpdatePayment(ctx context.Context, o *model.Order) error {
	return r.update(ctx, o.ID, map[string]interface{}{
		"transaction_id":       o.TransactionID,
		"payment_status":       o.PaymentStatus,
		"payment_verified":     o.PaymentVerified,
		"payment_metadata":     o.PaymentMetadata,
		"payment_timestamp":    o.PaymentTimestamp,
		"payment_requested_at": o.PaymentRequestedAt,
	})
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, o *model.Order) error {
	return r.update(ctx, o.ID, map[string]interface{}{
		"order_status":  o.OrderStatus,
		"delivery_date": o.DeliveryDate,
	})
}

func (r *OrderGormRepository) update(ctx context.Context, id int64, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
