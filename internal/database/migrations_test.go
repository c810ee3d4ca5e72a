package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/mediaplatform/internal/models"
)

func TestAutoMigrateCreatesCatalogTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))

	migrator := db.Migrator()
	tables := []any{
		&models.Permission{},
		&models.PermissionMember{},
		&models.BillingAccount{},
		&models.Channel{},
		&models.MediaItem{},
		&models.Playlist{},
		&models.AuditLog{},
		&models.CacheEntry{},
	}

	for _, table := range tables {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
}

func TestAutoMigrateSkipsAnnotationColumns(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))

	migrator := db.Migrator()
	require.True(t, migrator.HasColumn(&models.MediaItem{}, "view_permission_id"))
	require.True(t, migrator.HasColumn(&models.MediaItem{}, "deleted_at"))
	require.False(t, migrator.HasColumn(&models.MediaItem{}, "viewable"))
	require.False(t, migrator.HasColumn(&models.MediaItem{}, "editable"))
}

func TestAutoMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}
