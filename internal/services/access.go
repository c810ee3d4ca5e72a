package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
	apperrors "github.com/charlesng35/mediaplatform/pkg/errors"
)

func recordOf(perm *models.Permission) *permissions.Record {
	if perm == nil || perm.ID == "" {
		return nil
	}
	record := perm.Record()
	return &record
}

// evaluate computes the access flags for a loaded resource. A missing permission
// row is reported as an integrity error rather than a denial.
func evaluate(kind, id string, view, edit *models.Permission, downloadable bool, principal permissions.Principal) (permissions.Access, error) {
	access, err := permissions.Evaluate(permissions.Subject{
		Kind:         kind,
		ID:           id,
		View:         recordOf(view),
		Edit:         recordOf(edit),
		Downloadable: downloadable,
	}, principal)
	if err != nil {
		return permissions.Access{}, integrityFailure(err)
	}
	return access, nil
}

func integrityFailure(err error) error {
	if errors.Is(err, permissions.ErrIntegrity) {
		return apperrors.ErrIntegrity.WithInternal(err)
	}
	return err
}

// requireSignedIn rejects anonymous principals before any write.
func requireSignedIn(principal permissions.Principal) error {
	if principal.Anonymous || principal.Identifier == "" {
		return ErrSignInRequired
	}
	return nil
}

// requireEdit maps access flags onto the errors surfaced for write operations:
// a resource that cannot be seen does not exist, one that cannot be edited is forbidden.
func requireEdit(access permissions.Access, notFound error) error {
	if !access.Viewable {
		return notFound
	}
	if !access.Editable {
		return ErrEditDenied
	}
	return nil
}

// creatorRecord returns a record granting only the creating principal.
func creatorRecord(principal permissions.Principal) permissions.Record {
	return permissions.Nobody().WithCRSID(principal.Identifier)
}

// loadChannelForWrite loads channelID for a create or move operation. Channels the
// principal cannot edit are reported as invalid input so their existence is not revealed.
func loadChannelForWrite(tx *gorm.DB, principal permissions.Principal, channelID string) (*models.Channel, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, invalidInput("channel is required")
	}

	var channel models.Channel
	err := tx.Preload("ViewPermission.Members").
		Preload("EditPermission.Members").
		First(&channel, "id = ?", channelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalidInput("channel not found")
	}
	if err != nil {
		return nil, err
	}

	access, err := evaluate(permissions.KindChannel, channel.ID, channel.ViewPermission, channel.EditPermission, false, principal)
	if err != nil {
		return nil, err
	}
	if !access.Viewable {
		return nil, invalidInput("channel not found")
	}
	if !access.Editable {
		return nil, invalidInput("you do not have permission to add items to this channel")
	}
	return &channel, nil
}

// createPermissionPair stores fresh view and edit permission rows.
func createPermissionPair(tx *gorm.DB, view, edit permissions.Record) (*models.Permission, *models.Permission, error) {
	viewPerm := models.PermissionFromRecord(view)
	if err := tx.Create(viewPerm).Error; err != nil {
		return nil, nil, fmt.Errorf("create view permission: %w", err)
	}
	editPerm := models.PermissionFromRecord(edit)
	if err := tx.Create(editPerm).Error; err != nil {
		return nil, nil, fmt.Errorf("create edit permission: %w", err)
	}
	return viewPerm, editPerm, nil
}

// likeEscaper escapes LIKE metacharacters using '!', which needs no quoting in
// any supported dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// searchPattern returns a case-insensitive substring pattern for search, or ""
// when there is nothing to search for.
func searchPattern(search string) string {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(search) + "%"
}

// searchCondition matches searchPattern against any of columns.
func searchCondition(columns ...string) string {
	terms := make([]string, 0, len(columns))
	for _, column := range columns {
		terms = append(terms, "LOWER("+column+") LIKE ? ESCAPE '!'")
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}
