package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/pkg/enums"
)

// OrderLineItem captures the snapshot of each purchasable within an order.
type OrderLineItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	PurchasableID   uuid.UUID             `gorm:"column:purchasable_id;type:uuid;not null"`
	PurchasableKind enums.PurchasableKind `gorm:"column:purchasable_kind;type:purchasable_kind;not null"`
	Title           string                `gorm:"column:title;not null"`
	UnitPriceCents  int                   `gorm:"column:unit_price_cents;not null"`
	Quantity        int                   `gorm:"column:quantity;not null;default:1"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
