// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nexuschat/nexuschat-be/internal/modules/saas/models"
	"github.com/nexuschat/nexuschat-be/internal/shared/database"
)

// OpenDB returns an in-memory SQLite database with every model migrated.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.Config(logger.Silent))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// Each connection to :memory: gets its own database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// CreateTenant inserts an active tenant and returns it.
func CreateTenant(t testing.TB, db *gorm.DB, tenant models.Tenant) models.Tenant {
	t.Helper()

	if tenant.BusinessName == "" {
		tenant.BusinessName = "Barbearia Teste"
	}
	if tenant.ContactEmail == "" {
		tenant.ContactEmail = tenant.BusinessName + "@example.com"
	}
	if tenant.SubscriptionStatus == "" {
		tenant.SubscriptionStatus = models.SubscriptionStatusActive
	}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return tenant
}
