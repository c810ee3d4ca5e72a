package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Permission{},
		&models.PermissionMember{},
		&models.BillingAccount{},
		&models.Channel{},
		&models.MediaItem{},
		&models.Playlist{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}
