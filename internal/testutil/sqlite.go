// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"

	"agritech/internal/domain/model"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns an in-memory database with the domain tables created.
// One connection only, so a transaction never waits on itself.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.ProductImage{},
		&model.Order{},
		&model.AuditLog{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// SeedUser inserts a user with a placeholder password hash.
func SeedUser(t testing.TB, db *gorm.DB, email string, role model.Role) *model.User {
	t.Helper()

	u := &model.User{
		Username:     "user" + uuid.NewString()[:6],
		Email:        email,
		PasswordHash: "x",
		Address:      "Kigali",
		PhoneNumber:  "0781234567",
		Role:         role,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}
