package repository

import (
	"context"

	"agritech/internal/domain/model"
)

type OrderFilter struct {
	BuyerID  *int64
	SellerID *int64
}

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*model.Order, error)
	List(ctx context.Context, f OrderFilter) ([]model.Order, error)
	// writes transaction id and payment fields only; ErrDuplicate when the transaction id is taken
	UpdatePayment(ctx context.Context, o *model.Order) error
	// writes order status and delivery date only
	UpdateStatus(ctx context.Context, o *model.Order) error
}
