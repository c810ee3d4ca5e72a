package models

// Channel groups media items and playlists under a billing account.
type Channel struct {
	CatalogModel

	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	BillingAccountID string          `gorm:"type:uuid;not null;index" json:"billing_account_id"`
	BillingAccount   *BillingAccount `gorm:"foreignKey:BillingAccountID;constraint:OnDelete:RESTRICT" json:"-"`

	ViewPermissionID string      `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	ViewPermission   *Permission `gorm:"foreignKey:ViewPermissionID;constraint:OnDelete:RESTRICT" json:"-"`
	EditPermissionID string      `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	EditPermission   *Permission `gorm:"foreignKey:EditPermissionID;constraint:OnDelete:RESTRICT" json:"-"`

	Viewable bool `gorm:"->;-:migration" json:"viewable"`
	Editable bool `gorm:"->;-:migration" json:"editable"`
}

// TableName overrides the default table name for GORM.
func (Channel) TableName() string {
	return "channels"
}
