package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
	"github.com/charlesng35/mediaplatform/pkg/validator"
)

// CreateBillingAccountInput describes a new billing account.
type CreateBillingAccountInput struct {
	LookupInstID string
	Description  string
}

// BillingAccountService manages billing accounts. Accounts are created by
// administrators; their view permission is always public and their edit
// permission is always empty.
type BillingAccountService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewBillingAccountService constructs a BillingAccountService.
func NewBillingAccountService(db *gorm.DB, audit *AuditService) (*BillingAccountService, error) {
	if db == nil {
		return nil, errors.New("billing account service: db is required")
	}
	return &BillingAccountService{db: db, audit: audit}, nil
}

// List returns the billing accounts principal may view.
func (s *BillingAccountService) List(ctx context.Context, principal permissions.Principal, page PageOptions) (*ListResult[models.BillingAccount], error) {
	ctx = ensureContext(ctx)

	offset, err := page.offset()
	if err != nil {
		return nil, err
	}
	limit := page.limit()

	query := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.BillingAccount{}).
			Scopes(permissions.FilterViewable(permissions.KindBillingAccount, principal))
	}

	var rows []models.BillingAccount
	if err := query().
		Scopes(permissions.Annotate(permissions.KindBillingAccount, principal)).
		Order("billing_accounts.created_at DESC, billing_accounts.id DESC").
		Offset(offset).
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("billing account service: list accounts: %w", err)
	}

	result := &ListResult[models.BillingAccount]{Limit: limit}
	result.Items, result.Next = trimPage(rows, offset, limit)

	if page.IncludeCount {
		var total int64
		if err := query().Count(&total).Error; err != nil {
			return nil, fmt.Errorf("billing account service: count accounts: %w", err)
		}
		result.Count = &total
	}
	return result, nil
}

// Get returns a billing account principal may view.
func (s *BillingAccountService) Get(ctx context.Context, principal permissions.Principal, id string) (*models.BillingAccount, error) {
	ctx = ensureContext(ctx)

	var account models.BillingAccount
	err := s.db.WithContext(ctx).
		Preload("ViewPermission.Members").
		Preload("EditPermission.Members").
		First(&account, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBillingAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("billing account service: load account: %w", err)
	}

	access, err := evaluate(permissions.KindBillingAccount, account.ID, account.ViewPermission, account.EditPermission, false, principal)
	if err != nil {
		return nil, err
	}
	if !access.Viewable {
		return nil, ErrBillingAccountNotFound
	}

	account.Viewable = access.Viewable
	account.Editable = access.Editable
	return &account, nil
}

// Create stores a billing account for a Lookup institution. Members of the
// institution may create channels charged to the account.
func (s *BillingAccountService) Create(ctx context.Context, input CreateBillingAccountInput) (*models.BillingAccount, error) {
	ctx = ensureContext(ctx)

	instID := strings.TrimSpace(input.LookupInstID)
	if !validator.IsInstID(instID) {
		return nil, invalidInput("a valid Lookup institution id is required")
	}

	var account models.BillingAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		view, edit, err := createPermissionPair(tx, permissions.Public(), permissions.Nobody())
		if err != nil {
			return err
		}

		create := permissions.Nobody()
		create.LookupInsts = []string{instID}
		channelCreate := models.PermissionFromRecord(create)
		if err := tx.Create(channelCreate).Error; err != nil {
			return fmt.Errorf("create channel permission: %w", err)
		}

		account = models.BillingAccount{
			LookupInstID:              instID,
			Description:               strings.TrimSpace(input.Description),
			ViewPermissionID:          view.ID,
			EditPermissionID:          edit.ID,
			ChannelCreatePermissionID: channelCreate.ID,
		}
		return insertResource(tx, &account)
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "billing_account.create",
		Resource: "billing_account:" + account.ID,
		Result:   auditResult(err),
		Metadata: map[string]any{"lookup_instid": instID},
	})
	if err != nil {
		return nil, fmt.Errorf("billing account service: create: %w", err)
	}
	return &account, nil
}

// ChannelCreatable lists the billing accounts principal may create channels for.
func (s *BillingAccountService) ChannelCreatable(ctx context.Context, principal permissions.Principal) ([]models.BillingAccount, error) {
	ctx = ensureContext(ctx)

	if principal.Anonymous {
		return []models.BillingAccount{}, nil
	}

	predicate, vars := permissions.Predicate("billing_accounts.channel_create_permission_id", principal)

	var accounts []models.BillingAccount
	if err := s.db.WithContext(ctx).
		Model(&models.BillingAccount{}).
		Scopes(permissions.Annotate(permissions.KindBillingAccount, principal)).
		Where(predicate, vars...).
		Order("billing_accounts.lookup_inst_id ASC, billing_accounts.id ASC").
		Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("billing account service: list creatable accounts: %w", err)
	}
	return accounts, nil
}
