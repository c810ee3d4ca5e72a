package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/permissions"
	"github.com/charlesng35/mediaplatform/pkg/metrics"
)

// purgeOrder lists the soft deletable kinds, dependants before their parents.
var purgeOrder = []string{
	permissions.KindMediaItem,
	permissions.KindPlaylist,
	permissions.KindChannel,
}

// PurgeReport summarises a PurgeDeletedBefore run.
type PurgeReport struct {
	Purged  map[string]int64
	Skipped int64
}

// ResourceService hard deletes resources together with their permission rows.
type ResourceService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewResourceService constructs a ResourceService.
func NewResourceService(db *gorm.DB, audit *AuditService) (*ResourceService, error) {
	if db == nil {
		return nil, errors.New("resource service: db is required")
	}
	return &ResourceService{db: db, audit: audit}, nil
}

// Purge removes a resource row, soft deleted or not, and the permission rows it
// owns in a single transaction. Nothing is removed when one of those permission
// rows is still referenced by another resource.
func (s *ResourceService) Purge(ctx context.Context, kind, id string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return purge(tx, kind, id)
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "resource.purge",
		Resource: kind + ":" + id,
		Result:   auditResult(err),
	})
	if err != nil {
		return fmt.Errorf("resource service: purge: %w", err)
	}
	metrics.PurgedResources.WithLabelValues(kind).Inc()
	return nil
}

// PurgeDeletedBefore purges every resource soft deleted before cutoff.
// Resources that are still referenced are skipped and retried on the next run.
func (s *ResourceService) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (PurgeReport, error) {
	ctx = ensureContext(ctx)

	report := PurgeReport{Purged: make(map[string]int64, len(purgeOrder))}
	var errs error

	for _, kind := range purgeOrder {
		model, err := resourceModel(kind)
		if err != nil {
			return report, err
		}

		var ids []string
		if err := s.db.WithContext(ctx).
			Model(model).
			Unscoped().
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			errs = multierr.Append(errs, fmt.Errorf("resource service: list deleted %s: %w", kind, err))
			continue
		}

		for _, id := range ids {
			err := s.Purge(ctx, kind, id)
			switch {
			case err == nil:
				report.Purged[kind]++
			case errors.Is(err, ErrPermissionInUse), errors.Is(err, ErrResourceInUse):
				report.Skipped++
			default:
				errs = multierr.Append(errs, err)
			}
		}
	}

	return report, errs
}

func purge(tx *gorm.DB, kind, id string) error {
	ref, err := loadResourceRef(tx, kind, id, true)
	if err != nil {
		return err
	}
	model, err := resourceModel(kind)
	if err != nil {
		return err
	}

	if err := tx.Unscoped().Where("id = ?", ref.ID).Delete(model).Error; err != nil {
		if isForeignKeyError(err) {
			return ErrResourceInUse
		}
		return fmt.Errorf("delete %s: %w", kind, err)
	}

	for _, permissionID := range ref.permissionIDs() {
		refs, err := permissionReferences(tx, permissionID)
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return ErrPermissionInUse
		}
		if err := deletePermission(tx, permissionID); err != nil {
			return err
		}
	}
	return nil
}
