package grants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
)

// GrantRepository encapsulates download grant persistence.
type GrantRepository interface {
	WithTx(tx *gorm.DB) GrantRepository
	CreateBatch(ctx context.Context, grants []models.DownloadGrant) error
	FindByToken(ctx context.Context, token string) (*models.DownloadGrant, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.DownloadGrant, error)
	ConsumeDownload(ctx context.Context, grantID uuid.UUID) (bool, error)
}
