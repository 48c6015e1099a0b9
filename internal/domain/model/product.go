package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID    int64           `gorm:"not null;index" json:"sellerId"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category    string          `gorm:"type:varchar(50);not null;index" json:"category"`
	Stock       int64           `gorm:"not null;default:0" json:"stock"`
	Location    string          `gorm:"type:varchar(200);not null" json:"location"`
	Images      []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// image stored in object storage, addressable by public_id
type ProductImage struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	ProductID int64  `gorm:"not null;index" json:"-"`
	URL       string `gorm:"type:text;not null" json:"url"`
	PublicID  string `gorm:"type:varchar(255);not null" json:"public_id"`
}
