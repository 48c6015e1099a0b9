package model

import "time"

type AuditAction string

const (
	AuditActionPaymentInitiated     AuditAction = "PAYMENT_INITIATED"
	AuditActionPaymentStatusChanged AuditAction = "PAYMENT_STATUS_CHANGED"
	AuditActionUpdateOrderStatus    AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionDeleteProduct        AuditAction = "DELETE_PRODUCT"
	AuditActionDeleteUser           AuditAction = "DELETE_USER"
)

type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceUser    AuditResourceType = "user"
)

// actor for changes driven by the provider (webhook, verify)
const SystemActorID int64 = 0

// who changed what, on which resource, from/to
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`
	BeforeJSON   string            `gorm:"type:text" json:"before_json"`
	AfterJSON    string            `gorm:"type:text" json:"after_json"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}
