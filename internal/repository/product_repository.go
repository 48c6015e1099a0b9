package repository

import (
	"context"

	"agritech/internal/domain/model"

	"github.com/shopspring/decimal"
)

type ProductFilter struct {
	// case-insensitive substring
	Name     string
	Price    *decimal.Decimal
	Category string
	SellerID *int64
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, f ProductFilter) ([]model.Product, error)
	Delete(ctx context.Context, id int64) error
}
