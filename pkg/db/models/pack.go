package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sampleforge/sampleforge-backend/pkg/enums"
)

// Pack is a published bundle of samples sold as a single unit.
type Pack struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title           string           `gorm:"column:title;not null"`
	Slug            string           `gorm:"column:slug;not null;uniqueIndex"`
	ProducerName    string           `gorm:"column:producer_name;not null"`
	Status          enums.PackStatus `gorm:"column:status;type:pack_status;not null;default:'draft'"`
	PriceCents      int              `gorm:"column:price_cents;not null"`
	Currency        enums.Currency   `gorm:"column:currency;not null;default:'USD'"`
	CoverObjectPath *string          `gorm:"column:cover_object_path"`
	Tags            pq.StringArray   `gorm:"column:tags;type:text[]"`
	Samples         []Sample         `gorm:"foreignKey:PackID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
