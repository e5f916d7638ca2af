package main

import (
	"os"
	"strings"

	"livrocaixa/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openDB connects to Postgres when DATABASE_URL is set and falls back to a
// local sqlite file otherwise, mirroring the development/production split.
func openDB() (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "livrocaixa.db"
	}
	return gorm.Open(sqlite.Open(path), cfg)
}

// initDB runs schema migrations and seeds the default admin user.
func initDB(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(&models.User{}, &models.Account{}, &models.Balance{}); err != nil {
		return err
	}
	return seedAdmin(db, log)
}

// seedAdmin creates the default admin account on first boot.
func seedAdmin(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	admin := models.User{
		Username:     "admin",
		PasswordHash: hashPassword(password),
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Info("seeded default admin user", zap.String("username", admin.Username))
	return nil
}

// isUniqueConstraintError matches the duplicate-key errors Postgres and sqlite
// report when a unique index rejects an insert.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "UNIQUE constraint")
}
