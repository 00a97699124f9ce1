package bootstrap

import (
	"errors"
	"log/slog"
	"strings"

	"anoa.com/civicreport/internal/config"
	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/pkg/password"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Report{},
		&entity.ReportLike{},
		&entity.Comment{},
		&entity.Category{},
		&entity.Notification{},
	)
}

// SeedAdminUser creates the administrator account from ADMIN_EMAIL and
// ADMIN_PASSWORD. Registration never grants admin, so this is the only way
// an admin comes into existence. Nothing happens when either is unset.
func SeedAdminUser(db *gorm.DB, cfg *config.Config, hasher password.Hasher) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		slog.Info("admin credentials not configured, skipping admin seed")
		return nil
	}

	var existing entity.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if !existing.IsAdmin {
			return db.Model(&existing).Update("is_admin", true).Error
		}
		slog.Info("admin user already exists, skipping seed", "email", email)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := entity.User{
		Username:          cfg.AdminUsername,
		Email:             email,
		PasswordHash:      hash,
		IsAdmin:           true,
		IsAccountVerified: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	slog.Info("admin user seeded", "email", email)
	return nil
}
