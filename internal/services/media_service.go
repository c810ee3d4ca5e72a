package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/mediaplatform/internal/legacysms"
	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
	apperrors "github.com/charlesng35/mediaplatform/pkg/errors"
)

// StatsSource supplies per-day view counts for items imported from the legacy
// streaming media service.
type StatsSource interface {
	MediaStatsByDay(ctx context.Context, mediaID int64) ([]legacysms.DayStats, error)
}

// MediaListOptions filters the media list.
type MediaListOptions struct {
	Search     string
	ChannelID  string
	PlaylistID string
	Page       PageOptions
}

// MediaDetail is a media item annotated for the requesting principal.
type MediaDetail struct {
	models.MediaItem
	DownloadableByUser bool `json:"downloadable_by_user"`
}

// CreateMediaInput describes a new media item.
type CreateMediaInput struct {
	ChannelID    string
	Title        string
	Description  string
	Type         string
	Duration     float64
	Downloadable bool
	Language     string
	Copyright    string
	Tags         []string
	PublishedAt  *time.Time
}

// UpdateMediaInput holds the fields of a media patch. The channel may be
// supplied but must match the stored one.
type UpdateMediaInput struct {
	ChannelID    *string
	Title        *string
	Description  *string
	Downloadable *bool
	Language     *string
	Copyright    *string
	Tags         *[]string
	PublishedAt  *time.Time
}

// MediaService manages media items.
type MediaService struct {
	db    *gorm.DB
	audit *AuditService
	stats StatsSource
}

// NewMediaService constructs a MediaService. stats may be nil when no legacy
// statistics database is configured.
func NewMediaService(db *gorm.DB, audit *AuditService, stats StatsSource) (*MediaService, error) {
	if db == nil {
		return nil, errors.New("media service: db is required")
	}
	return &MediaService{db: db, audit: audit, stats: stats}, nil
}

// List returns the media items principal may view, most recently published first.
func (s *MediaService) List(ctx context.Context, principal permissions.Principal, opts MediaListOptions) (*ListResult[MediaDetail], error) {
	ctx = ensureContext(ctx)

	offset, err := opts.Page.offset()
	if err != nil {
		return nil, err
	}
	limit := opts.Page.limit()

	var playlistItems []string
	if id := strings.TrimSpace(opts.PlaylistID); id != "" {
		var playlist models.Playlist
		err := s.db.WithContext(ctx).
			Model(&models.Playlist{}).
			Scopes(permissions.FilterViewable(permissions.KindPlaylist, principal)).
			Where("playlists.id = ?", id).
			First(&playlist).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlaylistNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("media service: load playlist: %w", err)
		}
		playlistItems = normaliseIDs(playlist.MediaIDs)
		if len(playlistItems) == 0 {
			return emptyMediaPage(limit, opts.Page.IncludeCount), nil
		}
	}

	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).
			Model(&models.MediaItem{}).
			Scopes(permissions.FilterViewable(permissions.KindMediaItem, principal))
		if pattern := searchPattern(opts.Search); pattern != "" {
			tagClause, tagArg := tagMatch(s.db, opts.Search)
			q = q.Where(
				s.db.Where(searchCondition("media_items.title", "media_items.description"), pattern, pattern).
					Or(tagClause, tagArg),
			)
		}
		if id := strings.TrimSpace(opts.ChannelID); id != "" {
			q = q.Where("media_items.channel_id = ?", id)
		}
		if playlistItems != nil {
			q = q.Where("media_items.id IN ?", playlistItems)
		}
		return q
	}

	var rows []models.MediaItem
	if err := query().
		Scopes(permissions.Annotate(permissions.KindMediaItem, principal)).
		Order("media_items.published_at DESC, media_items.created_at DESC, media_items.id DESC").
		Offset(offset).
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("media service: list media: %w", err)
	}

	page, next := trimPage(rows, offset, limit)
	result := &ListResult[MediaDetail]{
		Items: make([]MediaDetail, 0, len(page)),
		Next:  next,
		Limit: limit,
	}
	for _, item := range page {
		result.Items = append(result.Items, MediaDetail{
			MediaItem:          item,
			DownloadableByUser: permissions.DownloadableByUser(item.Viewable, item.Editable, item.Downloadable),
		})
	}

	if opts.Page.IncludeCount {
		var total int64
		if err := query().Count(&total).Error; err != nil {
			return nil, fmt.Errorf("media service: count media: %w", err)
		}
		result.Count = &total
	}
	return result, nil
}

// Get returns a single media item principal may view.
func (s *MediaService) Get(ctx context.Context, principal permissions.Principal, id string) (*MediaDetail, error) {
	ctx = ensureContext(ctx)

	item, access, err := s.authorize(s.db.WithContext(ctx), principal, id)
	if err != nil {
		return nil, err
	}
	return &MediaDetail{MediaItem: *item, DownloadableByUser: access.DownloadableByUser}, nil
}

// Create stores a new media item in a channel the principal may edit. The
// creator is granted view and edit rights on the new item.
func (s *MediaService) Create(ctx context.Context, principal permissions.Principal, input CreateMediaInput) (*MediaDetail, error) {
	ctx = ensureContext(ctx)

	if err := requireSignedIn(principal); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalidInput("title is required")
	}
	mediaType, err := normaliseMediaType(input.Type)
	if err != nil {
		return nil, err
	}

	var item models.MediaItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		channel, err := loadChannelForWrite(tx, principal, input.ChannelID)
		if err != nil {
			return err
		}

		creator := creatorRecord(principal)
		view, edit, err := createPermissionPair(tx, creator, creator)
		if err != nil {
			return err
		}

		item = models.MediaItem{
			Title:            title,
			Description:      strings.TrimSpace(input.Description),
			Type:             mediaType,
			Duration:         input.Duration,
			Downloadable:     input.Downloadable,
			Language:         strings.TrimSpace(input.Language),
			Copyright:        strings.TrimSpace(input.Copyright),
			Tags:             datatypes.JSONSlice[string](normaliseTags(input.Tags)),
			PublishedAt:      input.PublishedAt,
			ChannelID:        channel.ID,
			ViewPermissionID: view.ID,
			EditPermissionID: edit.ID,
		}
		return insertResource(tx, &item)
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Actor:    actorOf(principal),
		Action:   "media.create",
		Resource: "media_item:" + item.ID,
		Result:   auditResult(err),
		Metadata: map[string]any{"channel_id": input.ChannelID},
	})
	if err != nil {
		return nil, fmt.Errorf("media service: create: %w", err)
	}

	return s.Get(ctx, principal, item.ID)
}

// Update patches a media item the principal may edit.
func (s *MediaService) Update(ctx context.Context, principal permissions.Principal, id string, input UpdateMediaInput) (*MediaDetail, error) {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, access, err := s.authorize(tx.Clauses(clause.Locking{Strength: "UPDATE"}), principal, id)
		if err != nil {
			return err
		}
		if err := requireEdit(access, ErrMediaNotFound); err != nil {
			return err
		}
		if input.ChannelID != nil && strings.TrimSpace(*input.ChannelID) != item.ChannelID {
			return invalidInput("the channel of a media item cannot be changed")
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
		if input.Downloadable != nil {
			updates["downloadable"] = *input.Downloadable
		}
		if language := trimmed(input.Language); language != nil {
			updates["language"] = *language
		}
		if copyright := trimmed(input.Copyright); copyright != nil {
			updates["copyright"] = *copyright
		}
		if input.Tags != nil {
			updates["tags"] = datatypes.JSONSlice[string](normaliseTags(*input.Tags))
		}
		if input.PublishedAt != nil {
			updates["published_at"] = *input.PublishedAt
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.MediaItem{}).Where("id = ?", item.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, fmt.Errorf("media service: update: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Actor:    actorOf(principal),
		Action:   "media.update",
		Resource: "media_item:" + id,
		Result:   AuditResultSuccess,
	})
	return s.Get(ctx, principal, id)
}

// Delete soft deletes a media item the principal may edit.
func (s *MediaService) Delete(ctx context.Context, principal permissions.Principal, id string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, access, err := s.authorize(tx, principal, id)
		if err != nil {
			return err
		}
		if err := requireEdit(access, ErrMediaNotFound); err != nil {
			return err
		}
		return tx.Where("id = ?", item.ID).Delete(&models.MediaItem{}).Error
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Actor:    actorOf(principal),
		Action:   "media.delete",
		Resource: "media_item:" + id,
		Result:   auditResult(err),
	})
	if err != nil {
		return fmt.Errorf("media service: delete: %w", err)
	}
	return nil
}

// Analytics returns per-day view counts for a media item principal may view.
// Items without a legacy media id have no statistics.
func (s *MediaService) Analytics(ctx context.Context, principal permissions.Principal, id string) ([]legacysms.DayStats, error) {
	ctx = ensureContext(ctx)

	item, _, err := s.authorize(s.db.WithContext(ctx), principal, id)
	if err != nil {
		return nil, err
	}
	if s.stats == nil || item.SMSMediaID == nil {
		return []legacysms.DayStats{}, nil
	}

	stats, err := s.stats.MediaStatsByDay(ctx, *item.SMSMediaID)
	if err != nil {
		return nil, apperrors.ErrBadGateway.WithInternal(fmt.Errorf("media service: analytics: %w", err))
	}
	if stats == nil {
		stats = []legacysms.DayStats{}
	}
	return stats, nil
}

func (s *MediaService) authorize(db *gorm.DB, principal permissions.Principal, id string) (*models.MediaItem, permissions.Access, error) {
	var item models.MediaItem
	err := db.Preload("ViewPermission.Members").
		Preload("EditPermission.Members").
		First(&item, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, permissions.Access{}, ErrMediaNotFound
	}
	if err != nil {
		return nil, permissions.Access{}, fmt.Errorf("load media item: %w", err)
	}

	access, err := evaluate(permissions.KindMediaItem, item.ID, item.ViewPermission, item.EditPermission, item.Downloadable, principal)
	if err != nil {
		return nil, permissions.Access{}, err
	}
	if !access.Viewable {
		return nil, access, ErrMediaNotFound
	}

	item.Viewable = access.Viewable
	item.Editable = access.Editable
	return &item, access, nil
}

func emptyMediaPage(limit int, includeCount bool) *ListResult[MediaDetail] {
	result := &ListResult[MediaDetail]{Items: []MediaDetail{}, Limit: limit}
	if includeCount {
		var zero int64
		result.Count = &zero
	}
	return result
}

func normaliseMediaType(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return models.MediaTypeUnknown, nil
	case models.MediaTypeVideo:
		return models.MediaTypeVideo, nil
	case models.MediaTypeAudio:
		return models.MediaTypeAudio, nil
	case models.MediaTypeUnknown:
		return models.MediaTypeUnknown, nil
	default:
		return "", invalidInput(fmt.Sprintf("unsupported media type %q", value))
	}
}

func normaliseTags(tags []string) []string {
	out := normaliseIDs(tags)
	if out == nil {
		return []string{}
	}
	return out
}

// tagMatch returns a condition that holds when the tags array contains the
// lower cased search term as a whole element.
func tagMatch(db *gorm.DB, search string) (string, any) {
	term := strings.ToLower(strings.TrimSpace(search))
	switch db.Dialector.Name() {
	case "postgres":
		encoded, _ := json.Marshal([]string{term})
		return "media_items.tags @> CAST(? AS jsonb)", string(encoded)
	case "mysql":
		return "JSON_CONTAINS(media_items.tags, JSON_ARRAY(?))", term
	default:
		return "EXISTS (SELECT 1 FROM json_each(media_items.tags) WHERE json_each.value = ?)", term
	}
}
