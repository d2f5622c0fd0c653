package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
)

// CatalogRepository defines the persistence surface required by the catalog service.
type CatalogRepository interface {
	WithTx(tx *gorm.DB) CatalogRepository
	ListPublished(ctx context.Context, limit, offset int) ([]models.Pack, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pack, error)
	FindBySlug(ctx context.Context, slug string) (*models.Pack, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Pack, error)
	FindSamplesByPackIDs(ctx context.Context, packIDs []uuid.UUID) ([]models.Sample, error)
	FindSampleByID(ctx context.Context, id uuid.UUID) (*models.Sample, error)
	FindSellableSamplesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Sample, error)
}
