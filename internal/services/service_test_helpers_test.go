package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/database/testutil"
	"github.com/charlesng35/mediaplatform/internal/legacysms"
	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func user(crsid string) permissions.Principal {
	return permissions.Principal{Identifier: crsid}
}

func crsids(ids ...string) permissions.Record {
	record := permissions.Nobody()
	for _, id := range ids {
		record = record.WithCRSID(id)
	}
	return record
}

// catalogFixture is a billing account for UIS with one public channel edited by spqr1.
type catalogFixture struct {
	account *models.BillingAccount
	channel *models.Channel
}

func newCatalogFixture(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()

	account := testutil.MustCreateBillingAccount(t, db, "UIS")
	channel := testutil.MustCreateChannel(t, db, account.ID, permissions.Public(), crsids("spqr1"))
	return catalogFixture{account: account, channel: channel}
}

// breakPermission deletes a permission row behind the back of the foreign key
// constraints, leaving dangling references.
func breakPermission(t *testing.T, db *gorm.DB, id string) {
	t.Helper()

	require.NoError(t, db.Exec("PRAGMA foreign_keys = OFF").Error)
	require.NoError(t, db.Exec("DELETE FROM permissions WHERE id = ?", id).Error)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
}

type stubStats struct {
	calls []int64
	stats []legacysms.DayStats
	err   error
}

func (s *stubStats) MediaStatsByDay(_ context.Context, mediaID int64) ([]legacysms.DayStats, error) {
	s.calls = append(s.calls, mediaID)
	return s.stats, s.err
}
