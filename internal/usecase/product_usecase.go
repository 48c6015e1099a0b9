package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"agritech/internal/domain/model"
	repo "agritech/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const MaxImageBytes = 5 << 20

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
}

type ProductUsecase struct {
	products repo.ProductRepository
	tx       repo.TransactionManager
	uploader ImageUploader
	clock    Clock
	logger   *zap.Logger
}

// DI
func NewProductUsecase(
	products repo.ProductRepository,
	tx repo.TransactionManager,
	uploader ImageUploader,
	clock Clock,
	logger *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		tx:       tx,
		uploader: uploader,
		clock:    clock,
		logger:   logger.With(zap.String("component", "product")),
	}
}

// schema-validated fields plus the optional image
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int64
	Location    string
	Image       *ImageFile
}

type ProductFilterInput struct {
	Name     string
	Price    string
	Category string
}

func (u *ProductUsecase) Create(ctx context.Context, actor Actor, in CreateProductInput) (*model.Product, error) {
	if actor.UserID <= 0 {
		return nil, NewUnauthorized("unauthorized")
	}
	if actor.Role != model.RoleSeller && !actor.IsAdmin() {
		return nil, NewForbidden("only sellers can add products")
	}
	if !in.Price.IsPositive() {
		return nil, NewValidationError("price must be greater than 0")
	}
	if in.Stock < 0 {
		return nil, NewValidationError("stock must be >= 0")
	}

	p := &model.Product{
		SellerID:    actor.UserID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
		Category:    strings.TrimSpace(in.Category),
		Stock:       in.Stock,
		Location:    strings.TrimSpace(in.Location),
		Images:      []model.ProductImage{},
	}

	if in.Image != nil {
		if err := checkImage(*in.Image); err != nil {
			return nil, err
		}
		up, err := u.uploader.Upload(ctx, *in.Image)
		if err != nil {
			u.logger.Error("image upload failed", zap.Error(err))
			return nil, NewInternal(err)
		}
		p.Images = append(p.Images, model.ProductImage{URL: up.URL, PublicID: up.PublicID})
	}

	if err := u.products.Create(ctx, p); err != nil {
		// do not leave orphaned objects behind
		u.cleanupImages(ctx, p.Images)
		return nil, NewInternal(err)
	}
	return p, nil
}

func (u *ProductUsecase) List(ctx context.Context) ([]model.Product, error) {
	items, err := u.products.List(ctx, repo.ProductFilter{})
	if err != nil {
		return nil, NewInternal(err)
	}
	return items, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		return nil, NewValidationError("invalid product id")
	}
	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewNotFound("Product not found")
	}
	if err != nil {
		return nil, NewInternal(err)
	}
	return p, nil
}

// Filter matches name as a case-insensitive substring, price exactly and category exactly.
// Empty fields are ignored.
func (u *ProductUsecase) Filter(ctx context.Context, in ProductFilterInput) ([]model.Product, error) {
	f := repo.ProductFilter{
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
	}
	if s := strings.TrimSpace(in.Price); s != "" {
		price, err := decimal.NewFromString(s)
		if err != nil || price.IsNegative() {
			return nil, NewValidationError("price must be a non-negative number")
		}
		f.Price = &price
	}
	if len(f.Name) > 100 {
		return nil, NewValidationError("name too long")
	}

	items, err := u.products.List(ctx, f)
	if err != nil {
		return nil, NewInternal(err)
	}
	return items, nil
}

func (u *ProductUsecase) ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error) {
	if sellerID <= 0 {
		return nil, NewUnauthorized("unauthorized")
	}
	items, err := u.products.List(ctx, repo.ProductFilter{SellerID: &sellerID})
	if err != nil {
		return nil, NewInternal(err)
	}
	return items, nil
}

// Delete soft-deletes a product owned by the actor (or any product for an admin)
// and removes its stored images.
func (u *ProductUsecase) Delete(ctx context.Context, actor Actor, id int64) error {
	if id <= 0 {
		return NewValidationError("invalid product id")
	}

	var images []model.ProductImage
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("Product not found!")
		}
		if err != nil {
			return NewInternal(err)
		}
		if !actor.IsAdmin() && p.SellerID != actor.UserID {
			return NewForbidden("you can only delete your own products")
		}

		if err := r.Products().Delete(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("Product not found!")
			}
			return NewInternal(err)
		}

		before, _ := json.Marshal(map[string]interface{}{
			"name":     p.Name,
			"sellerId": p.SellerID,
			"price":    p.Price.StringFixed(2),
			"stock":    p.Stock,
		})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   id,
			BeforeJSON:   string(before),
			AfterJSON:    `{"deleted":true}`,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewInternal(err)
		}
		images = p.Images
		return nil
	})
	if err != nil {
		return err
	}

	u.cleanupImages(ctx, images)
	return nil
}

func (u *ProductUsecase) cleanupImages(ctx context.Context, images []model.ProductImage) {
	for _, img := range images {
		if err := u.uploader.Delete(ctx, img.PublicID); err != nil {
			u.logger.Warn("image delete failed", zap.String("public_id", img.PublicID), zap.Error(err))
		}
	}
}

func checkImage(img ImageFile) error {
	if _, ok := allowedImageTypes[strings.ToLower(img.ContentType)]; !ok {
		return NewHTTPError(http.StatusUnsupportedMediaType, "Only jpeg, jpg, and png images are allowed!")
	}
	if len(img.Data) == 0 {
		return NewValidationError("image is empty")
	}
	if len(img.Data) > MaxImageBytes {
		return NewHTTPError(http.StatusRequestEntityTooLarge, "image must be 5MB or smaller")
	}
	return nil
}
