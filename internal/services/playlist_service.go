package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

// PlaylistListOptions filters the playlist list.
type PlaylistListOptions struct {
	Search    string
	ChannelID string
	Page      PageOptions
}

// PlaylistDetail is a playlist with its media items expanded. Items that no
// longer exist or that the principal cannot view are omitted.
type PlaylistDetail struct {
	models.Playlist
	MediaItems []MediaDetail `json:"media_items"`
}

// CreatePlaylistInput describes a new playlist.
type CreatePlaylistInput struct {
	ChannelID   string
	Title       string
	Description string
	MediaIDs    []string
}

// UpdatePlaylistInput holds the fields of a playlist patch. The channel may be
// supplied but must match the stored one.
type UpdatePlaylistInput struct {
	ChannelID   *string
	Title       *string
	Description *string
	MediaIDs    *[]string
}

// PlaylistService manages playlists.
type PlaylistService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewPlaylistService constructs a PlaylistService.
func NewPlaylistService(db *gorm.DB, audit *AuditService) (*PlaylistService, error) {
	if db == nil {
		return nil, errors.New("playlist service: db is required")
	}
	return &PlaylistService{db: db, audit: audit}, nil
}

// List returns the playlists principal may view, newest first.
func (s *PlaylistService) List(ctx context.Context, principal permissions.Principal, opts PlaylistListOptions) (*ListResult[models.Playlist], error) {
	ctx = ensureContext(ctx)

	offset, err := opts.Page.offset()
	if err != nil {
		return nil, err
	}
	limit := opts.Page.limit()

	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).
			Model(&models.Playlist{}).
			Scopes(permissions.FilterViewable(permissions.KindPlaylist, principal))
		if pattern := searchPattern(opts.Search); pattern != "" {
			q = q.Where(searchCondition("playlists.title", "playlists.description"), pattern, pattern)
		}
		if id := strings.TrimSpace(opts.ChannelID); id != "" {
			q = q.Where("playlists.channel_id = ?", id)
		}
		return q
	}

	var rows []models.Playlist
	if err := query().
		Scopes(permissions.Annotate(permissions.KindPlaylist, principal)).
		Order("playlists.created_at DESC, playlists.id DESC").
		Offset(offset).
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("playlist service: list playlists: %w", err)
	}

	result := &ListResult[models.Playlist]{Limit: limit}
	result.Items, result.Next = trimPage(rows, offset, limit)

	if opts.Page.IncludeCount {
		var total int64
		if err := query().Count(&total).Error; err != nil {
			return nil, fmt.Errorf("playlist service: count playlists: %w", err)
		}
		result.Count = &total
	}
	return result, nil
}

// Get returns a playlist principal may view with its viewable media items in
// playlist order.
func (s *PlaylistService) Get(ctx context.Context, principal permissions.Principal, id string) (*PlaylistDetail, error) {
	ctx = ensureContext(ctx)

	playlist, _, err := s.authorize(s.db.WithContext(ctx), principal, id)
	if err != nil {
		return nil, err
	}

	detail := &PlaylistDetail{Playlist: *playlist, MediaItems: []MediaDetail{}}
	ids := normaliseIDs(playlist.MediaIDs)
	if len(ids) == 0 {
		return detail, nil
	}

	var items []models.MediaItem
	if err := s.db.WithContext(ctx).
		Model(&models.MediaItem{}).
		Scopes(
			permissions.FilterViewable(permissions.KindMediaItem, principal),
			permissions.Annotate(permissions.KindMediaItem, principal),
		).
		Where("media_items.id IN ?", ids).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("playlist service: load media items: %w", err)
	}

	byID := make(map[string]models.MediaItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	for _, mediaID := range playlist.MediaIDs {
		item, ok := byID[mediaID]
		if !ok {
			continue
		}
		detail.MediaItems = append(detail.MediaItems, MediaDetail{
			MediaItem:          item,
			DownloadableByUser: permissions.DownloadableByUser(item.Viewable, item.Editable, item.Downloadable),
		})
	}
	return detail, nil
}

// Create stores a new playlist in a channel the principal may edit.
func (s *PlaylistService) Create(ctx context.Context, principal permissions.Principal, input CreatePlaylistInput) (*PlaylistDetail, error) {
	ctx = ensureContext(ctx)

	if err := requireSignedIn(principal); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalidInput("title is required")
	}

	var playlist models.Playlist
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		channel, err := loadChannelForWrite(tx, principal, input.ChannelID)
		if err != nil {
			return err
		}

		creator := creatorRecord(principal)
		view, edit, err := createPermissionPair(tx, creator, creator)
		if err != nil {
			return err
		}

		playlist = models.Playlist{
			Title:            title,
			Description:      strings.TrimSpace(input.Description),
			MediaIDs:         datatypes.JSONSlice[string](orderedIDs(input.MediaIDs)),
			ChannelID:        channel.ID,
			ViewPermissionID: view.ID,
			EditPermissionID: edit.ID,
		}
		return insertResource(tx, &playlist)
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Actor:    actorOf(principal),
		Action:   "playlist.create",
		Resource: "playlist:" + playlist.ID,
		Result:   auditResult(err),
		Metadata: map[string]any{"channel_id": input.ChannelID},
	})
	if err != nil {
		return nil, fmt.Errorf("playlist service: create: %w", err)
	}

	return s.Get(ctx, principal, playlist.ID)
}

// Update patches a playlist the principal may edit.
func (s *PlaylistService) Update(ctx context.Context, principal permissions.Principal, id string, input UpdatePlaylistInput) (*PlaylistDetail, error) {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		playlist, access, err := s.authorize(tx.Clauses(clause.Locking{Strength: "UPDATE"}), principal, id)
		if err != nil {
			return err
		}
		if err := requireEdit(access, ErrPlaylistNotFound); err != nil {
			return err
		}
		if input.ChannelID != nil && strings.TrimSpace(*input.ChannelID) != playlist.ChannelID {
			return invalidInput("the channel of a playlist cannot be changed")
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
		if input.MediaIDs != nil {
			updates["media_ids"] = datatypes.JSONSlice[string](orderedIDs(*input.MediaIDs))
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Playlist{}).Where("id = ?", playlist.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, fmt.Errorf("playlist service: update: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Actor:    actorOf(principal),
		Action:   "playlist.update",
		Resource: "playlist:" + id,
		Result:   AuditResultSuccess,
	})
	return s.Get(ctx, principal, id)
}

// Delete soft deletes a playlist the principal may edit.
func (s *PlaylistService) Delete(ctx context.Context, principal permissions.Principal, id string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		playlist, access, err := s.authorize(tx, principal, id)
		if err != nil {
			return err
		}
		if err := requireEdit(access, ErrPlaylistNotFound); err != nil {
			return err
		}
		return tx.Where("id = ?", playlist.ID).Delete(&models.Playlist{}).Error
	})

	recordAudit(s.audit, ctx, AuditEntry{
		Actor:    actorOf(principal),
		Action:   "playlist.delete",
		Resource: "playlist:" + id,
		Result:   auditResult(err),
	})
	if err != nil {
		return fmt.Errorf("playlist service: delete: %w", err)
	}
	return nil
}

func (s *PlaylistService) authorize(db *gorm.DB, principal permissions.Principal, id string) (*models.Playlist, permissions.Access, error) {
	var playlist models.Playlist
	err := db.Preload("ViewPermission.Members").
		Preload("EditPermission.Members").
		First(&playlist, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, permissions.Access{}, ErrPlaylistNotFound
	}
	if err != nil {
		return nil, permissions.Access{}, fmt.Errorf("load playlist: %w", err)
	}

	access, err := evaluate(permissions.KindPlaylist, playlist.ID, playlist.ViewPermission, playlist.EditPermission, false, principal)
	if err != nil {
		return nil, permissions.Access{}, err
	}
	if !access.Viewable {
		return nil, access, ErrPlaylistNotFound
	}

	playlist.Viewable = access.Viewable
	playlist.Editable = access.Editable
	return &playlist, access, nil
}

// orderedIDs trims entries and drops blanks while keeping order and repeats.
func orderedIDs(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
