package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/mediaplatform/pkg/errors"
)

var (
	// ErrMediaNotFound is returned for media items that do not exist or are not viewable.
	ErrMediaNotFound = apperrors.New("MEDIA_NOT_FOUND", "Media item not found", http.StatusNotFound)
	// ErrPlaylistNotFound is returned for playlists that do not exist or are not viewable.
	ErrPlaylistNotFound = apperrors.New("PLAYLIST_NOT_FOUND", "Playlist not found", http.StatusNotFound)
	// ErrChannelNotFound is returned for channels that do not exist or are not viewable.
	ErrChannelNotFound = apperrors.New("CHANNEL_NOT_FOUND", "Channel not found", http.StatusNotFound)
	// ErrBillingAccountNotFound is returned for unknown billing accounts.
	ErrBillingAccountNotFound = apperrors.New("BILLING_ACCOUNT_NOT_FOUND", "Billing account not found", http.StatusNotFound)
	// ErrPermissionNotFound is returned for unknown permission records.
	ErrPermissionNotFound = apperrors.New("PERMISSION_NOT_FOUND", "Permission not found", http.StatusNotFound)

	// ErrEditDenied is returned when a visible resource may not be modified by the principal.
	ErrEditDenied = apperrors.New("EDIT_DENIED", "You do not have permission to modify this resource", http.StatusForbidden)
	// ErrSignInRequired is returned when an anonymous principal attempts a write.
	ErrSignInRequired = apperrors.New("SIGN_IN_REQUIRED", "Authentication required", http.StatusUnauthorized)
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = apperrors.New("INVALID_INPUT", "Invalid request", http.StatusBadRequest)

	// ErrPermissionInUse is returned when a permission record is still referenced by a resource.
	ErrPermissionInUse = apperrors.New("PERMISSION_IN_USE", "Permission is still referenced", http.StatusConflict)
	// ErrPermissionShared is returned when a resource would point at a permission
	// record another resource already owns.
	ErrPermissionShared = apperrors.New("PERMISSION_SHARED", "Permission belongs to another resource", http.StatusConflict)
	// ErrResourceInUse is returned when purging a resource that other rows still depend on.
	ErrResourceInUse = apperrors.New("RESOURCE_IN_USE", "Resource is still referenced", http.StatusConflict)
)

// invalidInput returns ErrInvalidInput carrying a specific message. errors.Is
// matches it against ErrInvalidInput through the wrapped internal error.
func invalidInput(message string) error {
	return ErrInvalidInput.WithMessage(message).WithInternal(ErrInvalidInput)
}

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") || strings.Contains(lower, "duplicate")
}

// insertResource stores a new resource row. Every permission column carries a
// unique index, so a violation means the row would share a permission record.
func insertResource(tx *gorm.DB, resource any) error {
	err := tx.Create(resource).Error
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %v", ErrPermissionShared, err)
	}
	return err
}

// isForeignKeyError detects foreign key violations across vendors.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23503" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && (myErr.Number == 1451 || myErr.Number == 1452) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}
