package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/mediaplatform/internal/database/testutil"
	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

func newPermissionService(t *testing.T) (*PermissionService, catalogFixture) {
	t.Helper()

	db := openServiceTestDB(t)
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	svc, err := NewPermissionService(db, audit)
	require.NoError(t, err)
	return svc, newCatalogFixture(t, db)
}

func TestPermissionServiceReplace(t *testing.T) {
	svc, _ := newPermissionService(t)
	ctx := context.Background()

	perm := testutil.MustCreatePermission(t, svc.db, crsids("abc12"))

	replaced, err := svc.Replace(ctx, perm.ID, permissions.Record{
		CRSIDs:       []string{"SPQR1", "spqr1", ""},
		LookupGroups: []int64{101888, 101888},
		LookupInsts:  []string{"uis"},
		IsSignedIn:   true,
	})
	require.NoError(t, err)
	require.Equal(t, perm.ID, replaced.ID)
	require.Equal(t, []string{"spqr1"}, replaced.CRSIDs)
	require.Equal(t, []int64{101888}, replaced.LookupGroups)
	require.Equal(t, []string{"UIS"}, replaced.LookupInsts)
	require.True(t, replaced.IsSignedIn)
	require.False(t, replaced.IsPublic)

	fetched, err := svc.Get(ctx, perm.ID)
	require.NoError(t, err)
	require.Equal(t, replaced.Record, fetched.Record)

	var members int64
	require.NoError(t, svc.db.Model(&models.PermissionMember{}).Where("permission_id = ?", perm.ID).Count(&members).Error)
	require.Equal(t, int64(3), members)

	_, err = svc.Replace(ctx, perm.ID, permissions.Record{CRSIDs: []string{"not a crsid"}})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Replace(ctx, "missing", permissions.Public())
	require.ErrorIs(t, err, ErrPermissionNotFound)
}

func TestPermissionServiceGrantMergesWithStoredGrants(t *testing.T) {
	svc, _ := newPermissionService(t)
	ctx := context.Background()

	perm := testutil.MustCreatePermission(t, svc.db, crsids("abc12"))

	// A replace that lands before the grant must survive it.
	_, err := svc.Replace(ctx, perm.ID, permissions.Record{CRSIDs: []string{"abc12", "bcd23"}, LookupInsts: []string{"UIS"}})
	require.NoError(t, err)

	granted, err := svc.Grant(ctx, perm.ID, permissions.Record{
		CRSIDs:       []string{"CDE34", "abc12"},
		LookupGroups: []int64{7},
		LookupInsts:  []string{"uis"},
		IsSignedIn:   true,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"abc12", "bcd23", "cde34"}, granted.CRSIDs)
	require.Equal(t, []int64{7}, granted.LookupGroups)
	require.Equal(t, []string{"UIS"}, granted.LookupInsts)
	require.True(t, granted.IsSignedIn)
	require.False(t, granted.IsPublic)

	fetched, err := svc.Get(ctx, perm.ID)
	require.NoError(t, err)
	require.Equal(t, granted.Record, fetched.Record)

	_, err = svc.Grant(ctx, perm.ID, permissions.Record{CRSIDs: []string{"not a crsid"}})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Grant(ctx, "missing", permissions.Public())
	require.ErrorIs(t, err, ErrPermissionNotFound)
}

func TestPermissionServiceDeleteRefusesReferencedPermission(t *testing.T) {
	svc, fx := newPermissionService(t)
	ctx := context.Background()

	item := testutil.MustCreateMediaItem(t, svc.db, fx.channel.ID, permissions.Public(), permissions.Nobody(), false)

	refs, err := svc.References(ctx, item.ViewPermissionID)
	require.NoError(t, err)
	require.Equal(t, []PermissionReference{{Kind: permissions.KindMediaItem, ResourceID: item.ID, Slot: SlotView}}, refs)

	require.ErrorIs(t, svc.Delete(ctx, item.ViewPermissionID), ErrPermissionInUse)
	_, err = svc.Get(ctx, item.ViewPermissionID)
	require.NoError(t, err)

	orphan := testutil.MustCreatePermission(t, svc.db, crsids("abc12"))
	require.NoError(t, svc.Delete(ctx, orphan.ID))
	_, err = svc.Get(ctx, orphan.ID)
	require.ErrorIs(t, err, ErrPermissionNotFound)

	var members int64
	require.NoError(t, svc.db.Model(&models.PermissionMember{}).Where("permission_id = ?", orphan.ID).Count(&members).Error)
	require.Zero(t, members)
}

func TestPermissionServiceResourcePermissionsRequireEdit(t *testing.T) {
	svc, fx := newPermissionService(t)
	ctx := context.Background()

	item := testutil.MustCreateMediaItem(t, svc.db, fx.channel.ID, permissions.Public(), crsids("spqr1"), false)
	hidden := testutil.MustCreateMediaItem(t, svc.db, fx.channel.ID, permissions.Nobody(), permissions.Nobody(), false)

	_, err := svc.ResourcePermissions(ctx, user("abc12"), permissions.KindMediaItem, item.ID)
	require.ErrorIs(t, err, ErrEditDenied)

	_, err = svc.ResourcePermissions(ctx, user("abc12"), permissions.KindMediaItem, hidden.ID)
	require.ErrorIs(t, err, ErrMediaNotFound)

	_, err = svc.ResourcePermissions(ctx, user("spqr1"), "unknown", item.ID)
	require.ErrorIs(t, err, ErrInvalidInput)

	current, err := svc.ResourcePermissions(ctx, user("spqr1"), permissions.KindMediaItem, item.ID)
	require.NoError(t, err)
	require.True(t, current.View.IsPublic)
	require.Equal(t, []string{"spqr1"}, current.Edit.CRSIDs)
}

func TestPermissionServiceUpdateResourcePermission(t *testing.T) {
	svc, fx := newPermissionService(t)
	ctx := context.Background()

	item := testutil.MustCreateMediaItem(t, svc.db, fx.channel.ID, permissions.Public(), crsids("spqr1"), false)

	_, err := svc.UpdateResourcePermission(ctx, user("spqr1"), permissions.KindMediaItem, item.ID, "owner", permissions.Public())
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateResourcePermission(ctx, user("abc12"), permissions.KindMediaItem, item.ID, SlotEdit, crsids("abc12"))
	require.ErrorIs(t, err, ErrEditDenied)

	updated, err := svc.UpdateResourcePermission(ctx, user("spqr1"), permissions.KindMediaItem, item.ID, SlotEdit, crsids("spqr1", "abc12"))
	require.NoError(t, err)
	require.Equal(t, []string{"abc12", "spqr1"}, updated.Edit.CRSIDs)
	require.Equal(t, item.EditPermissionID, updated.Edit.ID)

	_, err = svc.UpdateResourcePermission(ctx, user("abc12"), permissions.KindMediaItem, item.ID, SlotView, crsids("abc12"))
	require.NoError(t, err)

	_, err = svc.ResourcePermissions(ctx, user("zz999"), permissions.KindMediaItem, item.ID)
	require.ErrorIs(t, err, ErrMediaNotFound)

	var logs []models.AuditLog
	require.NoError(t, svc.db.Where("action = ? AND actor = ?", "permission.update", "spqr1").Find(&logs).Error)
	require.Len(t, logs, 1)
}

func TestPermissionServiceResourcePermissionsReportsIntegrityError(t *testing.T) {
	svc, fx := newPermissionService(t)
	item := testutil.MustCreateMediaItem(t, svc.db, fx.channel.ID, permissions.Public(), crsids("spqr1"), false)

	breakPermission(t, svc.db, item.ViewPermissionID)

	_, err := svc.ResourcePermissions(context.Background(), user("spqr1"), permissions.KindMediaItem, item.ID)
	require.ErrorIs(t, err, permissions.ErrIntegrity)
}

func TestPermissionServiceSlotPermissionID(t *testing.T) {
	svc, fixture := newPermissionService(t)
	ctx := context.Background()

	id, err := svc.SlotPermissionID(ctx, permissions.KindChannel, fixture.channel.ID, "EDIT")
	require.NoError(t, err)
	require.Equal(t, fixture.channel.EditPermissionID, id)

	id, err = svc.SlotPermissionID(ctx, permissions.KindBillingAccount, fixture.account.ID, SlotChannelCreate)
	require.NoError(t, err)
	require.Equal(t, fixture.account.ChannelCreatePermissionID, id)

	_, err = svc.SlotPermissionID(ctx, permissions.KindChannel, fixture.channel.ID, SlotChannelCreate)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SlotPermissionID(ctx, permissions.KindMediaItem, "missing", SlotView)
	require.ErrorIs(t, err, ErrMediaNotFound)
}
