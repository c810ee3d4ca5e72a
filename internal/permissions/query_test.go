package permissions_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/database/testutil"
	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

var (
	universeCRSIDs = []string{"spqr1", "abc12", "xyz99"}
	universeGroups = []int64{101, 202, 303}
	universeInsts  = []string{"UIS", "CHURCH", "ENG"}
)

func randomRecord(rng *rand.Rand) permissions.Record {
	record := permissions.Nobody()
	record.IsPublic = rng.Intn(8) == 0
	record.IsSignedIn = rng.Intn(6) == 0
	for _, crsid := range universeCRSIDs {
		if rng.Intn(3) == 0 {
			record.CRSIDs = append(record.CRSIDs, crsid)
		}
	}
	for _, group := range universeGroups {
		if rng.Intn(4) == 0 {
			record.LookupGroups = append(record.LookupGroups, group)
		}
	}
	for _, inst := range universeInsts {
		if rng.Intn(4) == 0 {
			record.LookupInsts = append(record.LookupInsts, inst)
		}
	}
	return record
}

func randomPrincipal(rng *rand.Rand) permissions.Principal {
	if rng.Intn(4) == 0 {
		p := permissions.AnonymousPrincipal()
		// Occasionally attach degenerate facts to an anonymous principal.
		if rng.Intn(3) == 0 {
			p.Identifier = universeCRSIDs[rng.Intn(len(universeCRSIDs))]
			p.GroupIDs = []int64{universeGroups[rng.Intn(len(universeGroups))]}
		}
		return p
	}

	p := permissions.Principal{}
	if rng.Intn(5) > 0 {
		p.Identifier = universeCRSIDs[rng.Intn(len(universeCRSIDs))]
	}
	for _, group := range universeGroups {
		if rng.Intn(3) == 0 {
			p.GroupIDs = append(p.GroupIDs, group)
		}
	}
	for _, inst := range universeInsts {
		if rng.Intn(3) == 0 {
			p.InstitutionCodes = append(p.InstitutionCodes, inst)
		}
	}
	return p
}

func TestBulkFilterMatchesEvaluator(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	rng := rand.New(rand.NewSource(20240601))

	account := testutil.MustCreateBillingAccount(t, db, "UIS")
	channel := testutil.MustCreateChannel(t, db, account.ID, permissions.Public(), permissions.Nobody())

	const resources = 40
	const principals = 25

	views := make(map[string]permissions.Record, resources)
	edits := make(map[string]permissions.Record, resources)
	for i := 0; i < resources; i++ {
		view, edit := randomRecord(rng), randomRecord(rng)
		item := testutil.MustCreateMediaItem(t, db, channel.ID, view, edit, rng.Intn(2) == 0)
		views[item.ID] = view
		edits[item.ID] = edit
	}

	for i := 0; i < principals; i++ {
		p := randomPrincipal(rng)
		name := fmt.Sprintf("principal-%d", i)

		var expectedView, expectedEdit []string
		for id, record := range views {
			if permissions.Satisfies(record, p) {
				expectedView = append(expectedView, id)
			}
			if permissions.Satisfies(edits[id], p) {
				expectedEdit = append(expectedEdit, id)
			}
		}

		var gotView []string
		require.NoError(t, db.Model(&models.MediaItem{}).
			Scopes(permissions.FilterViewable(permissions.KindMediaItem, p)).
			Pluck("media_items.id", &gotView).Error, name)
		require.ElementsMatch(t, expectedView, gotView, "%s %+v", name, p)

		var gotEdit []string
		require.NoError(t, db.Model(&models.MediaItem{}).
			Scopes(permissions.FilterEditable(permissions.KindMediaItem, p)).
			Pluck("media_items.id", &gotEdit).Error, name)
		require.ElementsMatch(t, expectedEdit, gotEdit, "%s %+v", name, p)

		var annotated []models.MediaItem
		require.NoError(t, db.Scopes(permissions.Annotate(permissions.KindMediaItem, p)).
			Find(&annotated).Error, name)
		require.Len(t, annotated, resources)
		for _, item := range annotated {
			require.Equal(t, permissions.Satisfies(views[item.ID], p), item.Viewable, "%s item %s", name, item.ID)
			require.Equal(t, permissions.Satisfies(edits[item.ID], p), item.Editable, "%s item %s", name, item.ID)
		}
	}
}

func TestStoredRecordRoundTripsThroughEvaluator(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	record := permissions.Record{
		CRSIDs:       []string{"spqr1", "spqr1", "abc12"},
		LookupGroups: []int64{12345},
		LookupInsts:  []string{"UIS"},
		IsSignedIn:   true,
	}
	perm := testutil.MustCreatePermission(t, db, record)

	var loaded models.Permission
	require.NoError(t, db.Preload("Members").First(&loaded, "id = ?", perm.ID).Error)

	got := loaded.Record()
	require.Equal(t, []string{"abc12", "spqr1"}, got.CRSIDs)
	require.Equal(t, []int64{12345}, got.LookupGroups)
	require.Equal(t, []string{"UIS"}, got.LookupInsts)
	require.True(t, got.IsSignedIn)
	require.False(t, got.IsPublic)
}

func TestAnnotatedRowsAreSortable(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	account := testutil.MustCreateBillingAccount(t, db, "UIS")
	channel := testutil.MustCreateChannel(t, db, account.ID, permissions.Public(), permissions.Nobody())
	hidden := testutil.MustCreateMediaItem(t, db, channel.ID, permissions.Nobody(), permissions.Nobody(), false)
	visible := testutil.MustCreateMediaItem(t, db, channel.ID, permissions.Public(), permissions.Nobody(), false)

	var items []models.MediaItem
	require.NoError(t, db.Scopes(permissions.AnnotateViewable(permissions.KindMediaItem, permissions.AnonymousPrincipal())).
		Order("viewable DESC").
		Find(&items).Error)

	require.Len(t, items, 2)
	require.Equal(t, visible.ID, items[0].ID)
	require.True(t, items[0].Viewable)
	require.Equal(t, hidden.ID, items[1].ID)
	require.False(t, items[1].Viewable)
	require.False(t, items[0].Editable)
}

func TestAnnotateEditableOrdersEditableFirst(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	owner := permissions.Principal{Identifier: "spqr1"}
	account := testutil.MustCreateBillingAccount(t, db, "UIS")
	channel := testutil.MustCreateChannel(t, db, account.ID, permissions.Public(), permissions.Nobody())
	locked := testutil.MustCreateMediaItem(t, db, channel.ID, permissions.Public(), permissions.Nobody(), false)
	owned := testutil.MustCreateMediaItem(t, db, channel.ID, permissions.Public(), permissions.Record{CRSIDs: []string{"spqr1"}}, false)

	var items []models.MediaItem
	require.NoError(t, db.Scopes(permissions.AnnotateEditable(permissions.KindMediaItem, owner)).
		Order("editable DESC").
		Find(&items).Error)

	require.Len(t, items, 2)
	require.Equal(t, owned.ID, items[0].ID)
	require.True(t, items[0].Editable)
	require.Equal(t, locked.ID, items[1].ID)
	require.False(t, items[1].Editable)
	require.False(t, items[0].Viewable)
}

func TestAnnotateScopeIsReusable(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	scope := permissions.Annotate(permissions.KindChannel, permissions.AnonymousPrincipal())

	render := func() string {
		return db.Session(&gorm.Session{DryRun: true}).
			Scopes(scope).
			Find(&[]models.Channel{}).Statement.SQL.String()
	}

	first := render()
	require.Contains(t, first, "AS viewable")
	require.Contains(t, first, "AS editable")
	require.Equal(t, first, render())

	viewOnly := db.Session(&gorm.Session{DryRun: true}).
		Scopes(permissions.AnnotateViewable(permissions.KindChannel, permissions.AnonymousPrincipal())).
		Find(&[]models.Channel{}).Statement.SQL.String()
	require.NotContains(t, viewOnly, "AS editable")
}

func TestFilterUnknownKindAddsError(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	var ids []string
	err := db.Model(&models.MediaItem{}).
		Scopes(permissions.FilterViewable("lecture_hall", permissions.AnonymousPrincipal())).
		Pluck("id", &ids).Error
	require.ErrorIs(t, err, permissions.ErrUnknownKind)
}

func TestFilterRendersPostgresPlaceholders(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	p := permissions.Principal{Identifier: "spqr1", InstitutionCodes: []string{"UIS", "ENG"}}

	mock.ExpectQuery(`SELECT \* FROM "media_items" WHERE .*media_items\.view_permission_id IN \(SELECT id FROM permissions WHERE is_public = \$1 OR is_signed_in = \$2\)`+
		` OR media_items\.view_permission_id IN \(SELECT permission_id FROM permission_members WHERE \(kind = \$3 AND value = \$4\) OR \(kind = \$5 AND value IN \(\$6,\$7\)\)\)`).
		WithArgs(true, true, "crsid", "spqr1", "lookup_inst", "UIS", "ENG").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("m1", "Lecture"))

	var items []models.MediaItem
	require.NoError(t, db.Scopes(permissions.FilterViewable(permissions.KindMediaItem, p)).Find(&items).Error)
	require.Len(t, items, 1)
	require.Equal(t, "m1", items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotateRendersSingleSelect(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	stmt := db.Session(&gorm.Session{DryRun: true}).
		Scopes(permissions.Annotate(permissions.KindPlaylist, permissions.Principal{Identifier: "spqr1"})).
		Find(&[]models.Playlist{}).Statement
	sql := stmt.SQL.String()

	require.Contains(t, sql, "SELECT playlists.*, (playlists.view_permission_id IN")
	require.Contains(t, sql, "AS viewable")
	require.Contains(t, sql, "AS editable")

	keys := []string{}
	for _, v := range stmt.Vars {
		if s, ok := v.(string); ok {
			keys = append(keys, s)
		}
	}
	sort.Strings(keys)
	require.Equal(t, []string{"crsid", "crsid", "spqr1", "spqr1"}, keys)
}
