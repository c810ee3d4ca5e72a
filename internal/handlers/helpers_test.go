package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	dbtestutil "github.com/charlesng35/mediaplatform/internal/database/testutil"
	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

func crsids(ids ...string) permissions.Record {
	record := permissions.Nobody()
	for _, id := range ids {
		record = record.WithCRSID(id)
	}
	return record
}

// seedChannel stores a UIS billing account and a public channel edited by spqr1.
func seedChannel(t *testing.T, db *gorm.DB) (*models.BillingAccount, *models.Channel) {
	t.Helper()
	account := dbtestutil.MustCreateBillingAccount(t, db, "UIS")
	channel := dbtestutil.MustCreateChannel(t, db, account.ID, permissions.Public(), crsids("spqr1"))
	return account, channel
}

func breakPermission(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, db.Exec("PRAGMA foreign_keys = OFF").Error)
	require.NoError(t, db.Exec("DELETE FROM permissions WHERE id = ?", id).Error)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
}
