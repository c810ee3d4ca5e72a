package models

import "gorm.io/datatypes"

// Playlist is an ordered list of media item ids belonging to a channel. Entries
// may refer to items that have since been deleted.
type Playlist struct {
	CatalogModel

	Title       string                      `gorm:"type:text;not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	MediaIDs    datatypes.JSONSlice[string] `json:"media_ids"`

	ChannelID string   `gorm:"type:uuid;not null;index" json:"channel_id"`
	Channel   *Channel `gorm:"foreignKey:ChannelID;constraint:OnDelete:RESTRICT" json:"-"`

	ViewPermissionID string      `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	ViewPermission   *Permission `gorm:"foreignKey:ViewPermissionID;constraint:OnDelete:RESTRICT" json:"-"`
	EditPermissionID string      `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	EditPermission   *Permission `gorm:"foreignKey:EditPermissionID;constraint:OnDelete:RESTRICT" json:"-"`

	Viewable bool `gorm:"->;-:migration" json:"viewable"`
	Editable bool `gorm:"->;-:migration" json:"editable"`
}

// TableName overrides the default table name for GORM.
func (Playlist) TableName() string {
	return "playlists"
}
