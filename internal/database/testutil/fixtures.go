package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

// MustCreatePermission stores a permission built from record.
func MustCreatePermission(t *testing.T, db *gorm.DB, record permissions.Record) *models.Permission {
	t.Helper()

	perm := models.PermissionFromRecord(record)
	require.NoError(t, db.Create(perm).Error)
	return perm
}

// MustCreateBillingAccount stores a billing account for instid with a public view
// permission, an empty edit permission and a channel creation permission granted
// to the institution.
func MustCreateBillingAccount(t *testing.T, db *gorm.DB, instid string) *models.BillingAccount {
	t.Helper()

	create := permissions.Nobody()
	create.LookupInsts = []string{instid}

	account := &models.BillingAccount{
		LookupInstID:              instid,
		ViewPermissionID:          MustCreatePermission(t, db, permissions.Public()).ID,
		EditPermissionID:          MustCreatePermission(t, db, permissions.Nobody()).ID,
		ChannelCreatePermissionID: MustCreatePermission(t, db, create).ID,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

// MustCreateChannel stores a channel under billingAccountID.
func MustCreateChannel(t *testing.T, db *gorm.DB, billingAccountID string, view, edit permissions.Record) *models.Channel {
	t.Helper()

	channel := &models.Channel{
		Title:            "Channel",
		BillingAccountID: billingAccountID,
		ViewPermissionID: MustCreatePermission(t, db, view).ID,
		EditPermissionID: MustCreatePermission(t, db, edit).ID,
	}
	require.NoError(t, db.Create(channel).Error)
	return channel
}

// MustCreateMediaItem stores a media item in channelID.
func MustCreateMediaItem(t *testing.T, db *gorm.DB, channelID string, view, edit permissions.Record, downloadable bool) *models.MediaItem {
	t.Helper()

	item := &models.MediaItem{
		Title:            "Media item",
		Type:             models.MediaTypeVideo,
		Downloadable:     downloadable,
		ChannelID:        channelID,
		ViewPermissionID: MustCreatePermission(t, db, view).ID,
		EditPermissionID: MustCreatePermission(t, db, edit).ID,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

// MustCreatePlaylist stores a playlist in channelID listing mediaIDs.
func MustCreatePlaylist(t *testing.T, db *gorm.DB, channelID string, view, edit permissions.Record, mediaIDs ...string) *models.Playlist {
	t.Helper()

	playlist := &models.Playlist{
		Title:            "Playlist",
		ChannelID:        channelID,
		MediaIDs:         mediaIDs,
		ViewPermissionID: MustCreatePermission(t, db, view).ID,
		EditPermissionID: MustCreatePermission(t, db, edit).ID,
	}
	require.NoError(t, db.Create(playlist).Error)
	return playlist
}
