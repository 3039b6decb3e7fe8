package db

import (
	"errors"
	"fmt"

	"github.com/spsports/sps-backend/config"
	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every persisted model in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.TrackingEvent{},
		&model.OrderCounter{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed creates the bootstrap admin account when one is configured.
func Seed(cfg *config.AuthConfig) error {
	return SeedAdmin(DB, cfg)
}

func SeedAdmin(db *gorm.DB, cfg *config.AuthConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Debug("No bootstrap admin configured, skipping seed")
		return nil
	}

	var existing model.User
	err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		logger.Info("Bootstrap admin already exists, skipping...", map[string]interface{}{
			"user_id": existing.ID,
		})
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	admin := &model.User{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     model.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		logger.Error("Failed to seed bootstrap admin", err)
		return err
	}

	logger.Info("Bootstrap admin created", map[string]interface{}{
		"user_id": admin.ID,
		"email":   admin.Email,
	})
	return nil
}
