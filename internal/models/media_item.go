package models

import (
	"time"

	"gorm.io/datatypes"
)

// Media types reported for a media item.
const (
	MediaTypeVideo   = "video"
	MediaTypeAudio   = "audio"
	MediaTypeUnknown = "unknown"
)

// MediaItem is an individual piece of audio or video in the catalog.
type MediaItem struct {
	CatalogModel

	Title        string                      `gorm:"type:text;not null" json:"title"`
	Description  string                      `gorm:"type:text" json:"description"`
	Duration     float64                     `json:"duration"`
	Type         string                      `gorm:"size:16;not null" json:"type"`
	Downloadable bool                        `gorm:"not null" json:"downloadable"`
	Language     string                      `gorm:"size:10" json:"language"`
	Copyright    string                      `gorm:"type:text" json:"copyright"`
	Tags         datatypes.JSONSlice[string] `json:"tags"`
	PublishedAt  *time.Time                  `gorm:"index" json:"published_at"`

	ChannelID string   `gorm:"type:uuid;not null;index" json:"channel_id"`
	Channel   *Channel `gorm:"foreignKey:ChannelID;constraint:OnDelete:RESTRICT" json:"-"`

	// SMSMediaID links the item to the legacy streaming media service.
	SMSMediaID *int64 `gorm:"index" json:"-"`

	ViewPermissionID string      `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	ViewPermission   *Permission `gorm:"foreignKey:ViewPermissionID;constraint:OnDelete:RESTRICT" json:"-"`
	EditPermissionID string      `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	EditPermission   *Permission `gorm:"foreignKey:EditPermissionID;constraint:OnDelete:RESTRICT" json:"-"`

	Viewable bool `gorm:"->;-:migration" json:"viewable"`
	Editable bool `gorm:"->;-:migration" json:"editable"`
}

// TableName overrides the default table name for GORM.
func (MediaItem) TableName() string {
	return "media_items"
}
