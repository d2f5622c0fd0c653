package models

import (
	"time"

	"github.com/google/uuid"
)

// DownloadGrant entitles its holder to fetch one sample a bounded number of
// times before ExpiresAt. Exactly one grant exists per (sample, order).
type DownloadGrant struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Token         string    `gorm:"column:token;not null;uniqueIndex"`
	OrderID       uuid.UUID `gorm:"column:order_id;type:uuid;not null;index:idx_download_grants_order_sample,unique"`
	SampleID      uuid.UUID `gorm:"column:sample_id;type:uuid;not null;index:idx_download_grants_order_sample,unique"`
	PackID        uuid.UUID `gorm:"column:pack_id;type:uuid;not null"`
	CustomerEmail string    `gorm:"column:customer_email;not null"`
	MaxDownloads  int       `gorm:"column:max_downloads;not null"`
	DownloadCount int       `gorm:"column:download_count;not null;default:0"`
	ExpiresAt     time.Time `gorm:"column:expires_at;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
