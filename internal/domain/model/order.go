package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// Paid and Failed are terminal
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

type PaymentChannel string

const (
	PaymentChannelMoMo        PaymentChannel = "MOMO"
	PaymentChannelCard        PaymentChannel = "CARD"
	PaymentChannelCash        PaymentChannel = "CASH"
	PaymentChannelAirtelMoney PaymentChannel = "AIRTEL_MONEY"
)

func (c PaymentChannel) Valid() bool {
	switch c {
	case PaymentChannelMoMo, PaymentChannelCard, PaymentChannelCash, PaymentChannelAirtelMoney:
		return true
	}
	return false
}

const (
	PaymentMethodPayPack = "PayPack"
	DefaultCurrency      = "RWF"
)

// product snapshot taken when the order is placed
type OrderLine struct {
	ProductID int64           `gorm:"not null;index" json:"productId"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

type ShippingAddress struct {
	FullName      string `gorm:"type:varchar(100);not null" json:"fullName"`
	PhoneNumber   string `gorm:"type:varchar(20);not null" json:"phoneNumber"`
	StreetAddress string `gorm:"type:varchar(255);not null" json:"streetAddress"`
	City          string `gorm:"type:varchar(100);not null" json:"city"`
}

type Order struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"orderId"`

	BuyerID  int64     `gorm:"not null;index" json:"buyerId"`
	SellerID int64     `gorm:"not null;index" json:"sellerId"`
	Product  OrderLine `gorm:"embedded;embeddedPrefix:product_" json:"product"`

	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'RWF'" json:"currency"`

	OrderStatus     OrderStatus     `gorm:"type:varchar(20);not null;default:'Pending'" json:"orderStatus"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`

	PaymentStatus    PaymentStatus  `gorm:"type:varchar(20);not null;default:'Pending'" json:"paymentStatus"`
	PaymentMethod    string         `gorm:"type:varchar(20);not null;default:'PayPack'" json:"paymentMethod"`
	PaymentChannel   PaymentChannel `gorm:"type:varchar(20);not null" json:"paymentChannel"`
	PaymentVerified  bool           `gorm:"not null;default:false" json:"paymentVerified"`
	PaymentMetadata  datatypes.JSON `json:"paymentMetadata,omitempty"`
	TransactionID    *string        `gorm:"type:varchar(128);uniqueIndex" json:"transactionId,omitempty"`
	PaymentTimestamp *time.Time     `json:"paymentTimestamp,omitempty"`

	// when the current TransactionID was sent to the provider
	PaymentRequestedAt *time.Time `json:"paymentRequestedAt,omitempty"`

	OrderDate    time.Time  `gorm:"not null" json:"orderDate"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
