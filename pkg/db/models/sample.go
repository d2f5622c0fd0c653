package models

import (
	"time"

	"github.com/google/uuid"
)

// Sample is a single downloadable audio asset belonging to a pack.
type Sample struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackID          uuid.UUID `gorm:"column:pack_id;type:uuid;not null;index"`
	Title           string    `gorm:"column:title;not null"`
	ObjectPath      string    `gorm:"column:object_path;not null"`
	PriceCents      *int      `gorm:"column:price_cents"`
	SizeBytes       int64     `gorm:"column:size_bytes;not null;default:0"`
	DurationSeconds *float64  `gorm:"column:duration_seconds"`
	BPM             *int      `gorm:"column:bpm"`
	KeySignature    *string   `gorm:"column:key_signature"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
