package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

// Permission slots of a resource.
const (
	SlotView          = "view"
	SlotEdit          = "edit"
	SlotChannelCreate = "channel_create"
)

// resourceRef is the identity of a resource together with the permission rows
// it points at.
type resourceRef struct {
	ID                        string
	ViewPermissionID          string
	EditPermissionID          string
	ChannelCreatePermissionID string
}

func (r resourceRef) permissionIDs() []string {
	return normaliseIDs([]string{r.ViewPermissionID, r.EditPermissionID, r.ChannelCreatePermissionID})
}

func (r resourceRef) slot(name string) (string, bool) {
	switch name {
	case SlotView:
		return r.ViewPermissionID, true
	case SlotEdit:
		return r.EditPermissionID, true
	case SlotChannelCreate:
		return r.ChannelCreatePermissionID, r.ChannelCreatePermissionID != ""
	default:
		return "", false
	}
}

func resourceModel(kind string) (any, error) {
	switch kind {
	case permissions.KindMediaItem:
		return &models.MediaItem{}, nil
	case permissions.KindPlaylist:
		return &models.Playlist{}, nil
	case permissions.KindChannel:
		return &models.Channel{}, nil
	case permissions.KindBillingAccount:
		return &models.BillingAccount{}, nil
	default:
		return nil, invalidInput(fmt.Sprintf("unknown resource kind %q", kind))
	}
}

func notFoundFor(kind string) error {
	switch kind {
	case permissions.KindMediaItem:
		return ErrMediaNotFound
	case permissions.KindPlaylist:
		return ErrPlaylistNotFound
	case permissions.KindChannel:
		return ErrChannelNotFound
	case permissions.KindBillingAccount:
		return ErrBillingAccountNotFound
	default:
		return ErrPermissionNotFound
	}
}

// loadResourceRef reads the permission columns of a resource. Soft deleted
// rows are only returned when unscoped is set.
func loadResourceRef(db *gorm.DB, kind, id string, unscoped bool) (resourceRef, error) {
	model, err := resourceModel(kind)
	if err != nil {
		return resourceRef{}, err
	}

	columns := "id, view_permission_id, edit_permission_id"
	if kind == permissions.KindBillingAccount {
		columns += ", channel_create_permission_id"
	}

	query := db.Model(model)
	if unscoped {
		query = query.Unscoped()
	}

	var ref resourceRef
	err = query.Select(columns).Where("id = ?", strings.TrimSpace(id)).Take(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return resourceRef{}, notFoundFor(kind)
	}
	if err != nil {
		return resourceRef{}, fmt.Errorf("load %s: %w", kind, err)
	}
	return ref, nil
}

// PermissionReference names a resource column that points at a permission row.
type PermissionReference struct {
	Kind       string `json:"kind"`
	ResourceID string `json:"resource_id"`
	Slot       string `json:"slot"`
}

// permissionReferences lists every resource row, soft deleted or not, that
// references permissionID.
func permissionReferences(db *gorm.DB, permissionID string) ([]PermissionReference, error) {
	type column struct {
		kind, table, name, slot string
	}

	var columns []column
	for _, kind := range permissions.All() {
		columns = append(columns,
			column{kind.Name, kind.Table, kind.ViewColumn, SlotView},
			column{kind.Name, kind.Table, kind.EditColumn, SlotEdit},
		)
	}
	columns = append(columns, column{permissions.KindBillingAccount, "billing_accounts", "channel_create_permission_id", SlotChannelCreate})

	refs := []PermissionReference{}
	for _, col := range columns {
		var ids []string
		if err := db.Table(col.table).Where(col.name+" = ?", permissionID).Pluck("id", &ids).Error; err != nil {
			return nil, fmt.Errorf("scan %s.%s: %w", col.table, col.name, err)
		}
		for _, id := range ids {
			refs = append(refs, PermissionReference{Kind: col.kind, ResourceID: id, Slot: col.slot})
		}
	}
	return refs, nil
}
