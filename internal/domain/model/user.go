package model

import "time"

type Role string

const (
	RoleBuyer  Role = "Buyer"
	RoleSeller Role = "Seller"
	RoleAdmin  Role = "Admin"
)

// role used when signup omits it
const DefaultRole = RoleBuyer

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(30);not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Address      string    `gorm:"type:varchar(255);not null" json:"address"`
	PhoneNumber  string    `gorm:"type:varchar(20);not null" json:"phoneNumber"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'Buyer'" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
