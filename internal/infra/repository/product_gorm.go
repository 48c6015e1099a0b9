package repository

import (
	"context"
	"strings"

	"agritech/internal/domain/model"
	repo "agritech/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// creates the product together with its images
func (r *ProductGormRepository) Create(ctx context.Context, p *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Images").First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// newest first
func (r *ProductGormRepository) List(ctx context.Context, f repo.ProductFilter) ([]model.Product, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{}).Preload("Images")

	if name := strings.TrimSpace(f.Name); name != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if f.Price != nil {
		tx = tx.Where("price = ?", *f.Price)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		tx = tx.Where("category = ?", c)
	}
	if f.SellerID != nil {
		tx = tx.Where("seller_id = ?", *f.SellerID)
	}

	var products []model.Product
	if err := tx.Order("created_at desc").Order("id desc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// soft delete
func (r *ProductGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
