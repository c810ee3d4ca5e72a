package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/mediaplatform/internal/database/testutil"
	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

func newResourceService(t *testing.T) (*ResourceService, catalogFixture) {
	t.Helper()

	db := openServiceTestDB(t)
	svc, err := NewResourceService(db, nil)
	require.NoError(t, err)
	return svc, newCatalogFixture(t, db)
}

func TestResourceServicePurgeRemovesPermissions(t *testing.T) {
	svc, fx := newResourceService(t)
	item := testutil.MustCreateMediaItem(t, svc.db, fx.channel.ID, permissions.Public(), crsids("spqr1"), false)

	require.NoError(t, svc.Purge(context.Background(), permissions.KindMediaItem, item.ID))

	var count int64
	require.NoError(t, svc.db.Unscoped().Model(&models.MediaItem{}).Where("id = ?", item.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, svc.db.Model(&models.Permission{}).Where("id IN ?", []string{item.ViewPermissionID, item.EditPermissionID}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, svc.db.Model(&models.PermissionMember{}).Where("permission_id = ?", item.EditPermissionID).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, svc.Purge(context.Background(), permissions.KindMediaItem, item.ID), ErrMediaNotFound)
}

func TestResourceServicePurgeFailsWhenPermissionIsShared(t *testing.T) {
	svc, fx := newResourceService(t)
	db := svc.db

	item := testutil.MustCreateMediaItem(t, db, fx.channel.ID, permissions.Public(), crsids("spqr1"), false)
	playlist := &models.Playlist{
		Title:            "Shares a permission",
		ChannelID:        fx.channel.ID,
		ViewPermissionID: item.ViewPermissionID,
		EditPermissionID: testutil.MustCreatePermission(t, db, permissions.Nobody()).ID,
	}
	require.NoError(t, db.Create(playlist).Error)

	err := svc.Purge(context.Background(), permissions.KindMediaItem, item.ID)
	require.ErrorIs(t, err, ErrPermissionInUse)

	var stored models.MediaItem
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	var perms int64
	require.NoError(t, db.Model(&models.Permission{}).Where("id = ?", item.EditPermissionID).Count(&perms).Error)
	require.Equal(t, int64(1), perms)
}

func TestResourceServicePurgeFailsWhileChildrenReferenceChannel(t *testing.T) {
	svc, fx := newResourceService(t)
	testutil.MustCreateMediaItem(t, svc.db, fx.channel.ID, permissions.Public(), permissions.Nobody(), false)

	err := svc.Purge(context.Background(), permissions.KindChannel, fx.channel.ID)
	require.ErrorIs(t, err, ErrResourceInUse)

	var stored models.Channel
	require.NoError(t, svc.db.First(&stored, "id = ?", fx.channel.ID).Error)
}

func TestResourceServicePurgeDeletedBefore(t *testing.T) {
	svc, fx := newResourceService(t)
	db := svc.db

	old := testutil.MustCreateMediaItem(t, db, fx.channel.ID, permissions.Public(), permissions.Nobody(), false)
	recent := testutil.MustCreateMediaItem(t, db, fx.channel.ID, permissions.Public(), permissions.Nobody(), false)
	live := testutil.MustCreateMediaItem(t, db, fx.channel.ID, permissions.Public(), permissions.Nobody(), false)
	oldPlaylist := testutil.MustCreatePlaylist(t, db, fx.channel.ID, permissions.Public(), permissions.Nobody())

	now := time.Now().UTC()
	require.NoError(t, db.Unscoped().Model(&models.MediaItem{}).Where("id = ?", old.ID).Update("deleted_at", now.Add(-48*time.Hour)).Error)
	require.NoError(t, db.Unscoped().Model(&models.MediaItem{}).Where("id = ?", recent.ID).Update("deleted_at", now.Add(-time.Hour)).Error)
	require.NoError(t, db.Unscoped().Model(&models.Playlist{}).Where("id = ?", oldPlaylist.ID).Update("deleted_at", now.Add(-72*time.Hour)).Error)
	require.NoError(t, db.Unscoped().Model(&models.Channel{}).Where("id = ?", fx.channel.ID).Update("deleted_at", now.Add(-72*time.Hour)).Error)

	report, err := svc.PurgeDeletedBefore(context.Background(), now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), report.Purged[permissions.KindMediaItem])
	require.Equal(t, int64(1), report.Purged[permissions.KindPlaylist])
	require.Zero(t, report.Purged[permissions.KindChannel])
	require.Equal(t, int64(1), report.Skipped)

	var remaining []string
	require.NoError(t, db.Unscoped().Model(&models.MediaItem{}).Order("id").Pluck("id", &remaining).Error)
	require.ElementsMatch(t, []string{recent.ID, live.ID}, remaining)
}
