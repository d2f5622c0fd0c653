package models

import (
	"time"

	"github.com/google/uuid"
)

// CartRecord holds the current cart for one owner key. The owner key is
// either a guest session identifier or an account id, so each shopper has
// at most one live cart.
type CartRecord struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerKey  string     `gorm:"column:owner_key;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
