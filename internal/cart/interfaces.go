package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
)

// CartRepository encapsulates cart persistence.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByOwnerKey(ctx context.Context, ownerKey string) (*models.CartRecord, error)
	Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error)
	DeleteByOwnerKey(ctx context.Context, ownerKey string) error
}
