package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

// ChannelListOptions filters the channel list.
type ChannelListOptions struct {
	Search           string
	BillingAccountID string
	Page             PageOptions
}

// ChannelDetail is a channel annotated for the requesting principal.
type ChannelDetail struct {
	models.Channel
	MediaCount int64 `json:"media_count"`
}

// CreateChannelInput describes a new channel.
type CreateChannelInput struct {
	Title            string
	Description      string
	BillingAccountID string
}

// UpdateChannelInput holds the fields of a channel patch. The billing account
// may be supplied but must match the stored one.
type UpdateChannelInput struct {
	Title            *string
	Description      *string
	BillingAccountID *string
}

// ChannelService manages channels.
type ChannelService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewChannelService constructs a ChannelService.
func NewChannelService(db *gorm.DB, audit *AuditService) (*ChannelService, error) {
	if db == nil {
		return nil, errors.New("channel service: db is required")
	}
	return &ChannelService{db: db, audit: audit}, nil
}

// List returns the channels principal may view, newest first.
func (s *ChannelService) List(ctx context.Context, principal permissions.Principal, opts ChannelListOptions) (*ListResult[models.Channel], error) {
	ctx = ensureContext(ctx)

	offset, err := opts.Page.offset()
	if err != nil {
		return nil, err
	}
	limit := opts.Page.limit()

	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).
			Model(&models.Channel{}).
			Scopes(permissions.FilterViewable(permissions.KindChannel, principal))
		if pattern := searchPattern(opts.Search); pattern != "" {
			q = q.Where(searchCondition("channels.title", "channels.description"), pattern, pattern)
		}
		if id := strings.TrimSpace(opts.BillingAccountID); id != "" {
			q = q.Where("channels.billing_account_id = ?", id)
		}
		return q
	}

	var rows []models.Channel
	if err := query().
		Scopes(permissions.Annotate(permissions.KindChannel, principal)).
		Order("channels.created_at DESC, channels.id DESC").
		Offset(offset).
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("channel service: list channels: %w", err)
	}

	result := &ListResult[models.Channel]{Limit: limit}
	result.Items, result.Next = trimPage(rows, offset, limit)

	if opts.Page.IncludeCount {
		var total int64
		if err := query().Count(&total).Error; err != nil {
			return nil, fmt.Errorf("channel service: count channels: %w", err)
		}
		result.Count = &total
	}
	return result, nil
}

// Get returns a channel with the number of media items principal may view in it.
func (s *ChannelService) Get(ctx context.Context, principal permissions.Principal, id string) (*ChannelDetail, error) {
	ctx = ensureContext(ctx)

	channel, _, err := s.authorize(s.db.WithContext(ctx), principal, id)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.MediaItem{}).
		Scopes(permissions.FilterViewable(permissions.KindMediaItem, principal)).
		Where("media_items.channel_id = ?", channel.ID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("channel service: count media: %w", err)
	}

	return &ChannelDetail{Channel: *channel, MediaCount: count}, nil
}

// Create stores a new channel. The principal must satisfy the billing account's
// channel creation permission and becomes the channel's only editor.
func (s *ChannelService) Create(ctx context.Context, principal permissions.Principal, input CreateChannelInput) (*ChannelDetail, error) {
	ctx = ensureContext(ctx)

	if err := requireSignedIn(principal); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalidInput("title is required")
	}

	var channel models.Channel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.BillingAccount
		err := tx.Preload("ChannelCreatePermission.Members").
			First(&account, "id = ?", strings.TrimSpace(input.BillingAccountID)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidInput("billing account not found")
		}
		if err != nil {
			return err
		}

		grant := recordOf(account.ChannelCreatePermission)
		if grant == nil {
			return integrityFailure(&permissions.IntegrityError{
				Kind:     permissions.KindBillingAccount,
				Resource: account.ID,
				Field:    "channel_create_permission",
			})
		}
		if !permissions.Satisfies(*grant, principal) {
			return invalidInput("you do not have permission to create channels for this billing account")
		}

		view, edit, err := createPermissionPair(tx, permissions.Public(), creatorRecord(principal))
		if err != nil {
			return err
		}

		channel = models.Channel{
			Title:            title,
			Description:      strings.TrimSpace(input.Description),
			BillingAccountID: account.ID,
			ViewPermissionID: view.ID,
			EditPermissionID: edit.ID,
		}
		return insertResource(tx, &channel)
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Actor:    actorOf(principal),
		Action:   "channel.create",
		Resource: "channel:" + channel.ID,
		Result:   auditResult(err),
		Metadata: map[string]any{"billing_account_id": input.BillingAccountID},
	})
	if err != nil {
		return nil, fmt.Errorf("channel service: create: %w", err)
	}

	return s.Get(ctx, principal, channel.ID)
}

// Update patches a channel the principal may edit.
func (s *ChannelService) Update(ctx context.Context, principal permissions.Principal, id string, input UpdateChannelInput) (*ChannelDetail, error) {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		channel, access, err := s.authorize(tx.Clauses(clause.Locking{Strength: "UPDATE"}), principal, id)
		if err != nil {
			return err
		}
		if err := requireEdit(access, ErrChannelNotFound); err != nil {
			return err
		}
		if input.BillingAccountID != nil && strings.TrimSpace(*input.BillingAccountID) != channel.BillingAccountID {
			return invalidInput("the billing account of a channel cannot be changed")
		}

		updates := map[string]any{}
		if title := trimmed(input.Title); title != nil {
			if *title == "" {
				return invalidInput("title cannot be empty")
			}
			updates["title"] = *title
		}
		if description := trimmed(input.Description); description != nil {
			updates["description"] = *description
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Channel{}).Where("id = ?", channel.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, fmt.Errorf("channel service: update: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Actor:    actorOf(principal),
		Action:   "channel.update",
		Resource: "channel:" + id,
		Result:   AuditResultSuccess,
	})
	return s.Get(ctx, principal, id)
}

// Delete soft deletes a channel the principal may edit.
func (s *ChannelService) Delete(ctx context.Context, principal permissions.Principal, id string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		channel, access, err := s.authorize(tx, principal, id)
		if err != nil {
			return err
		}
		if err := requireEdit(access, ErrChannelNotFound); err != nil {
			return err
		}
		return tx.Where("id = ?", channel.ID).Delete(&models.Channel{}).Error
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Actor:    actorOf(principal),
		Action:   "channel.delete",
		Resource: "channel:" + id,
		Result:   auditResult(err),
	})
	if err != nil {
		return fmt.Errorf("channel service: delete: %w", err)
	}
	return nil
}

// EditableBy lists the channels principal may edit, ordered by title.
func (s *ChannelService) EditableBy(ctx context.Context, principal permissions.Principal) ([]models.Channel, error) {
	ctx = ensureContext(ctx)

	if principal.Anonymous {
		return []models.Channel{}, nil
	}

	var channels []models.Channel
	if err := s.db.WithContext(ctx).
		Model(&models.Channel{}).
		Scopes(
			permissions.FilterEditable(permissions.KindChannel, principal),
			permissions.Annotate(permissions.KindChannel, principal),
		).
		Order("channels.title ASC, channels.id ASC").
		Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("channel service: list editable channels: %w", err)
	}
	return channels, nil
}

// authorize loads a channel and evaluates principal against it. Channels the
// principal cannot view are reported as not found.
func (s *ChannelService) authorize(db *gorm.DB, principal permissions.Principal, id string) (*models.Channel, permissions.Access, error) {
	var channel models.Channel
	err := db.Preload("ViewPermission.Members").
		Preload("EditPermission.Members").
		First(&channel, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, permissions.Access{}, ErrChannelNotFound
	}
	if err != nil {
		return nil, permissions.Access{}, fmt.Errorf("load channel: %w", err)
	}

	access, err := evaluate(permissions.KindChannel, channel.ID, channel.ViewPermission, channel.EditPermission, false, principal)
	if err != nil {
		return nil, permissions.Access{}, err
	}
	if !access.Viewable {
		return nil, access, ErrChannelNotFound
	}

	channel.Viewable = access.Viewable
	channel.Editable = access.Editable
	return &channel, access, nil
}
