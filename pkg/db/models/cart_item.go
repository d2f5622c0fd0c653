package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/pkg/enums"
)

// CartItem is one purchasable line inside a CartRecord. Price and titles are
// display snapshots taken when the item was added; checkout re-prices from
// the catalog before money is involved.
type CartItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID          uuid.UUID             `gorm:"column:cart_id;type:uuid;not null;index"`
	PurchasableID   uuid.UUID             `gorm:"column:purchasable_id;type:uuid;not null"`
	PurchasableKind enums.PurchasableKind `gorm:"column:purchasable_kind;type:purchasable_kind;not null"`
	Title           string                `gorm:"column:title;not null"`
	ProducerName    string                `gorm:"column:producer_name;not null"`
	UnitPriceCents  int                   `gorm:"column:unit_price_cents;not null"`
	Quantity        int                   `gorm:"column:quantity;not null;default:1"`
	PreviewURL      *string               `gorm:"column:preview_url"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
