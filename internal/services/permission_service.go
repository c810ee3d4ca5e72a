package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
	apperrors "github.com/charlesng35/mediaplatform/pkg/errors"
	"github.com/charlesng35/mediaplatform/pkg/validator"
)

// PermissionDetail is the API form of a stored permission record.
type PermissionDetail struct {
	ID string `json:"id"`
	permissions.Record
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourcePermissions holds the view and edit grants of one resource.
type ResourcePermissions struct {
	Kind       string           `json:"kind"`
	ResourceID string           `json:"resource_id"`
	View       PermissionDetail `json:"view"`
	Edit       PermissionDetail `json:"edit"`
}

// PermissionService reads and replaces permission records.
type PermissionService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewPermissionService constructs a PermissionService.
func NewPermissionService(db *gorm.DB, audit *AuditService) (*PermissionService, error) {
	if db == nil {
		return nil, errors.New("permission service: db is required")
	}
	return &PermissionService{db: db, audit: audit}, nil
}

// Get returns a permission record by id.
func (s *PermissionService) Get(ctx context.Context, id string) (*PermissionDetail, error) {
	ctx = ensureContext(ctx)

	perm, err := loadPermission(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("permission service: get: %w", err)
	}
	detail := detailOf(perm)
	return &detail, nil
}

// Replace atomically overwrites the grants of a permission record.
func (s *PermissionService) Replace(ctx context.Context, id string, record permissions.Record) (*PermissionDetail, error) {
	ctx = ensureContext(ctx)

	record, err := normaliseRecord(record)
	if err != nil {
		return nil, err
	}

	var perm *models.Permission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		perm, err = replacePermission(tx, id, record)
		return err
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "permission.replace",
		Resource: "permission:" + id,
		Result:   auditResult(err),
		Metadata: map[string]any{"record": record},
	})
	if err != nil {
		return nil, fmt.Errorf("permission service: replace: %w", err)
	}
	detail := detailOf(perm)
	return &detail, nil
}

// Grant adds the principals and flags of additions to a permission record. The
// current grants are read and rewritten under one row lock, so a concurrent
// Replace is either seen or waits.
func (s *PermissionService) Grant(ctx context.Context, id string, additions permissions.Record) (*PermissionDetail, error) {
	ctx = ensureContext(ctx)

	additions, err := normaliseRecord(additions)
	if err != nil {
		return nil, err
	}

	var perm *models.Permission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadPermission(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		perm, err = replacePermission(tx, current.ID, current.Record().Union(additions))
		return err
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "permission.grant",
		Resource: "permission:" + id,
		Result:   auditResult(err),
		Metadata: map[string]any{"additions": additions},
	})
	if err != nil {
		return nil, fmt.Errorf("permission service: grant: %w", err)
	}
	detail := detailOf(perm)
	return &detail, nil
}

// Delete removes a permission record which no resource references.
func (s *PermissionService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perm, err := loadPermission(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		refs, err := permissionReferences(tx, perm.ID)
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return ErrPermissionInUse
		}
		return deletePermission(tx, perm.ID)
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "permission.delete",
		Resource: "permission:" + id,
		Result:   auditResult(err),
	})
	if err != nil {
		return fmt.Errorf("permission service: delete: %w", err)
	}
	return nil
}

// SlotPermissionID returns the id of the permission row held in one slot of a
// resource, soft deleted or not. No authorization is applied; it serves
// administrative tooling.
func (s *PermissionService) SlotPermissionID(ctx context.Context, kind, resourceID, slot string) (string, error) {
	ctx = ensureContext(ctx)

	ref, err := loadResourceRef(s.db.WithContext(ctx), kind, resourceID, true)
	if err != nil {
		return "", fmt.Errorf("permission service: slot: %w", err)
	}
	id, ok := ref.slot(strings.ToLower(strings.TrimSpace(slot)))
	if !ok {
		return "", fmt.Errorf("permission service: slot: %w", invalidInput(fmt.Sprintf("%s has no %q permission", kind, slot)))
	}
	return id, nil
}

// References lists the resources that point at a permission record.
func (s *PermissionService) References(ctx context.Context, id string) ([]PermissionReference, error) {
	ctx = ensureContext(ctx)

	perm, err := loadPermission(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("permission service: references: %w", err)
	}
	refs, err := permissionReferences(s.db.WithContext(ctx), perm.ID)
	if err != nil {
		return nil, fmt.Errorf("permission service: references: %w", err)
	}
	return refs, nil
}

// ResourcePermissions returns the view and edit grants of a resource the
// principal may edit.
func (s *PermissionService) ResourcePermissions(ctx context.Context, principal permissions.Principal, kind, resourceID string) (*ResourcePermissions, error) {
	ctx = ensureContext(ctx)

	out, err := s.authorizeResource(s.db.WithContext(ctx), principal, kind, resourceID)
	if err != nil {
		return nil, fmt.Errorf("permission service: resource permissions: %w", err)
	}
	return out, nil
}

// UpdateResourcePermission replaces the view or edit grant of a resource the
// principal may edit.
func (s *PermissionService) UpdateResourcePermission(ctx context.Context, principal permissions.Principal, kind, resourceID, slot string, record permissions.Record) (*ResourcePermissions, error) {
	ctx = ensureContext(ctx)

	if err := requireSignedIn(principal); err != nil {
		return nil, err
	}
	slot = strings.ToLower(strings.TrimSpace(slot))
	if slot != SlotView && slot != SlotEdit {
		return nil, invalidInput(fmt.Sprintf("unknown permission %q", slot))
	}
	record, err := normaliseRecord(record)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.authorizeResource(tx, principal, kind, resourceID)
		if err != nil {
			return err
		}
		target := current.View.ID
		if slot == SlotEdit {
			target = current.Edit.ID
		}
		_, err = replacePermission(tx, target, record)
		return err
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Actor:    actorOf(principal),
		Action:   "permission.update",
		Resource: kind + ":" + resourceID,
		Result:   auditResult(err),
		Metadata: map[string]any{"slot": slot, "record": record},
	})
	if err != nil {
		return nil, fmt.Errorf("permission service: update resource permission: %w", err)
	}

	return s.ResourcePermissions(ctx, principal, kind, resourceID)
}

func (s *PermissionService) authorizeResource(db *gorm.DB, principal permissions.Principal, kind, resourceID string) (*ResourcePermissions, error) {
	ref, err := loadResourceRef(db, kind, resourceID, false)
	if err != nil {
		return nil, err
	}

	view, err := findPermission(db, ref.ViewPermissionID)
	if err != nil {
		return nil, err
	}
	edit, err := findPermission(db, ref.EditPermissionID)
	if err != nil {
		return nil, err
	}

	access, err := evaluate(kind, ref.ID, view, edit, false, principal)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(access, notFoundFor(kind)); err != nil {
		return nil, err
	}

	return &ResourcePermissions{
		Kind:       kind,
		ResourceID: ref.ID,
		View:       detailOf(view),
		Edit:       detailOf(edit),
	}, nil
}

// findPermission loads a permission row, returning nil when it does not exist.
func findPermission(db *gorm.DB, id string) (*models.Permission, error) {
	var perm models.Permission
	err := db.Preload("Members").First(&perm, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load permission: %w", err)
	}
	return &perm, nil
}

func loadPermission(db *gorm.DB, id string) (*models.Permission, error) {
	perm, err := findPermission(db, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if perm == nil {
		return nil, ErrPermissionNotFound
	}
	return perm, nil
}

// replacePermission swaps the flags and members of a permission row while
// holding a row lock.
func replacePermission(tx *gorm.DB, id string, record permissions.Record) (*models.Permission, error) {
	var perm models.Permission
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&perm, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPermissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock permission: %w", err)
	}

	perm.Apply(record)

	if err := tx.Where("permission_id = ?", perm.ID).Delete(&models.PermissionMember{}).Error; err != nil {
		return nil, fmt.Errorf("clear members: %w", err)
	}
	if err := tx.Model(&models.Permission{}).Where("id = ?", perm.ID).Updates(map[string]any{
		"is_public":    perm.IsPublic,
		"is_signed_in": perm.IsSignedIn,
	}).Error; err != nil {
		return nil, fmt.Errorf("update flags: %w", err)
	}
	if len(perm.Members) > 0 {
		if err := tx.Create(&perm.Members).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
			}
			return nil, fmt.Errorf("insert members: %w", err)
		}
	}

	return loadPermission(tx, perm.ID)
}

func deletePermission(tx *gorm.DB, id string) error {
	if err := tx.Where("permission_id = ?", id).Delete(&models.PermissionMember{}).Error; err != nil {
		return fmt.Errorf("delete members: %w", err)
	}
	if err := tx.Where("id = ?", id).Delete(&models.Permission{}).Error; err != nil {
		if isForeignKeyError(err) {
			return ErrPermissionInUse
		}
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}

func detailOf(perm *models.Permission) PermissionDetail {
	if perm == nil {
		return PermissionDetail{Record: permissions.Nobody()}
	}
	return PermissionDetail{ID: perm.ID, Record: perm.Record(), UpdatedAt: perm.UpdatedAt}
}

// normaliseRecord trims and validates the identifiers of an incoming grant.
func normaliseRecord(record permissions.Record) (permissions.Record, error) {
	out := permissions.Nobody()
	out.IsPublic = record.IsPublic
	out.IsSignedIn = record.IsSignedIn

	for _, crsid := range normaliseIDs(record.CRSIDs) {
		crsid = strings.ToLower(crsid)
		if !validator.IsCRSID(crsid) {
			return permissions.Record{}, invalidInput(fmt.Sprintf("invalid crsid %q", crsid))
		}
		out = out.WithCRSID(crsid)
	}

	seen := make(map[int64]struct{}, len(record.LookupGroups))
	for _, group := range record.LookupGroups {
		if group <= 0 {
			return permissions.Record{}, invalidInput(fmt.Sprintf("invalid lookup group %d", group))
		}
		if _, ok := seen[group]; ok {
			continue
		}
		seen[group] = struct{}{}
		out.LookupGroups = append(out.LookupGroups, group)
	}

	for _, inst := range normaliseIDs(record.LookupInsts) {
		inst = strings.ToUpper(inst)
		if !validator.IsInstID(inst) {
			return permissions.Record{}, invalidInput(fmt.Sprintf("invalid lookup institution %q", inst))
		}
		out.LookupInsts = append(out.LookupInsts, inst)
	}
	return out, nil
}
