package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
)

// Repository exposes read access to the pack catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CatalogRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListPublished returns published packs, newest first.
func (r *Repository) ListPublished(ctx context.Context, limit, offset int) ([]models.Pack, error) {
	var rows []models.Pack
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.PackPublished).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads one pack with its samples.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pack, error) {
	var pack models.Pack
	err := r.db.WithContext(ctx).
		Preload("Samples").
		Where("id = ?", id).
		First(&pack).Error
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

// FindBySlug loads one pack with its samples by storefront slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Pack, error) {
	var pack models.Pack
	err := r.db.WithContext(ctx).
		Preload("Samples").
		Where("slug = ?", slug).
		First(&pack).Error
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

// FindByIDs loads the requested packs without samples.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Pack, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Pack
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindSamplesByPackIDs returns all samples belonging to the given packs.
func (r *Repository) FindSamplesByPackIDs(ctx context.Context, packIDs []uuid.UUID) ([]models.Sample, error) {
	if len(packIDs) == 0 {
		return nil, nil
	}
	var rows []models.Sample
	if err := r.db.WithContext(ctx).
		Where("pack_id IN ?", packIDs).
		Order("pack_id ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindSellableSamplesByIDs returns samples that carry an individual price and
// whose parent pack is still published.
func (r *Repository) FindSellableSamplesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Sample, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Sample
	if err := r.db.WithContext(ctx).
		Joins("JOIN packs ON packs.id = samples.pack_id").
		Where("samples.id IN ?", ids).
		Where("samples.price_cents IS NOT NULL").
		Where("packs.status = ?", enums.PackPublished).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindSampleByID loads one sample.
func (r *Repository) FindSampleByID(ctx context.Context, id uuid.UUID) (*models.Sample, error) {
	var sample models.Sample
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sample).Error; err != nil {
		return nil, err
	}
	return &sample, nil
}
