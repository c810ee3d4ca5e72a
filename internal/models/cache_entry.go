package models

import "time"

// CacheEntry stores a directory lookup result when Redis is not configured.
type CacheEntry struct {
	Key       string `gorm:"primaryKey;size:256"`
	Value     []byte
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name for GORM.
func (CacheEntry) TableName() string {
	return "cache_entries"
}
