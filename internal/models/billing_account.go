package models

// BillingAccount owns channels and is tied to a Lookup institution. Its view
// permission is always public and its edit permission is always empty; channel
// creation is governed by ChannelCreatePermission.
type BillingAccount struct {
	BaseModel

	LookupInstID string `gorm:"size:64;not null;index" json:"lookup_instid"`
	Description  string `gorm:"type:text" json:"description"`

	ViewPermissionID          string      `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	ViewPermission            *Permission `gorm:"foreignKey:ViewPermissionID;constraint:OnDelete:RESTRICT" json:"-"`
	EditPermissionID          string      `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	EditPermission            *Permission `gorm:"foreignKey:EditPermissionID;constraint:OnDelete:RESTRICT" json:"-"`
	ChannelCreatePermissionID string      `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	ChannelCreatePermission   *Permission `gorm:"foreignKey:ChannelCreatePermissionID;constraint:OnDelete:RESTRICT" json:"-"`

	Viewable bool `gorm:"->;-:migration" json:"viewable"`
	Editable bool `gorm:"->;-:migration" json:"editable"`
}

// TableName overrides the default table name for GORM.
func (BillingAccount) TableName() string {
	return "billing_accounts"
}
