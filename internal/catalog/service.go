package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
)

const defaultPageSize = 50

// Service exposes catalog reads for the storefront and the checkout pipeline.
type Service interface {
	ListPublished(ctx context.Context, limit, offset int) ([]models.Pack, error)
	GetPack(ctx context.Context, id uuid.UUID) (*models.Pack, error)
	GetPackBySlug(ctx context.Context, slug string) (*models.Pack, error)
	LoadPurchasablePacks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Pack, error)
	LoadPurchasableSamples(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Sample, error)
	SamplesForPacks(ctx context.Context, packIDs []uuid.UUID) ([]models.Sample, error)
	GetSample(ctx context.Context, id uuid.UUID) (*models.Sample, error)
}

type service struct {
	repo CatalogRepository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo CatalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListPublished(ctx context.Context, limit, offset int) ([]models.Pack, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.ListPublished(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing packs")
	}
	return rows, nil
}

func (s *service) GetPack(ctx context.Context, id uuid.UUID) (*models.Pack, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack id is required")
	}
	pack, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pack not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pack")
	}
	return pack, nil
}

func (s *service) GetPackBySlug(ctx context.Context, slug string) (*models.Pack, error) {
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack slug is required")
	}
	pack, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pack not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pack")
	}
	return pack, nil
}

// LoadPurchasablePacks returns published packs keyed by id. Packs that are
// missing or no longer published are absent from the map; the caller decides
// whether that is fatal.
func (s *service) LoadPurchasablePacks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Pack, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading packs")
	}
	byID := make(map[uuid.UUID]models.Pack, len(rows))
	for _, pack := range rows {
		if pack.Status != enums.PackPublished {
			continue
		}
		byID[pack.ID] = pack
	}
	return byID, nil
}

// LoadPurchasableSamples returns individually sellable samples keyed by id.
// Samples without a price or under an unpublished pack are absent.
func (s *service) LoadPurchasableSamples(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Sample, error) {
	rows, err := s.repo.FindSellableSamplesByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading samples")
	}
	byID := make(map[uuid.UUID]models.Sample, len(rows))
	for _, sample := range rows {
		byID[sample.ID] = sample
	}
	return byID, nil
}

func (s *service) SamplesForPacks(ctx context.Context, packIDs []uuid.UUID) ([]models.Sample, error) {
	rows, err := s.repo.FindSamplesByPackIDs(ctx, packIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading samples")
	}
	return rows, nil
}

func (s *service) GetSample(ctx context.Context, id uuid.UUID) (*models.Sample, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sample id is required")
	}
	sample, err := s.repo.FindSampleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sample not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sample")
	}
	return sample, nil
}
