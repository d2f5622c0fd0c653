package cart

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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogLoader interface {
	LoadPurchasablePacks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Pack, error)
	LoadPurchasableSamples(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Sample, error)
}

// Service exposes cart operations. A cart holds at most one purchasable at a
// time: adding a new one replaces whatever was there before.
type Service interface {
	Get(ctx context.Context, ownerKey string) (*models.CartRecord, error)
	ReplaceWithPurchasable(ctx context.Context, ownerKey string, input ReplaceInput) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, ownerKey string, itemID uuid.UUID) (*models.CartRecord, error)
	Clear(ctx context.Context, ownerKey string) error
}

// ReplaceInput identifies the purchasable that becomes the cart's sole line.
type ReplaceInput struct {
	PurchasableID   uuid.UUID
	PurchasableKind enums.PurchasableKind
	Quantity        int
}

type service struct {
	repo    CartRepository
	tx      txRunner
	catalog catalogLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, catalog catalogLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

// Get returns the owner's cart. A missing cart is not an error: callers get
// an empty record for the owner key.
func (s *service) Get(ctx context.Context, ownerKey string) (*models.CartRecord, error) {
	if ownerKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner key is required")
	}
	record, err := s.repo.FindByOwnerKey(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.CartRecord{OwnerKey: ownerKey, Items: []models.CartItem{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return record, nil
}

// ReplaceWithPurchasable prices the purchasable from the catalog and makes it
// the cart's only item, discarding any previous contents.
func (s *service) ReplaceWithPurchasable(ctx context.Context, ownerKey string, input ReplaceInput) (*models.CartRecord, error) {
	if ownerKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner key is required")
	}
	if input.PurchasableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchasable id is required")
	}
	if !input.PurchasableKind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown purchasable kind")
	}
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	item, err := s.snapshotItem(ctx, input.PurchasableID, input.PurchasableKind, quantity)
	if err != nil {
		return nil, err
	}

	var record *models.CartRecord
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err = repo.FindByOwnerKey(ctx, ownerKey)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record, err = repo.Create(ctx, &models.CartRecord{OwnerKey: ownerKey})
		}
		if err != nil {
			return err
		}
		return repo.ReplaceItems(ctx, record.ID, []models.CartItem{*item})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replacing cart contents")
	}

	item.CartID = record.ID
	record.Items = []models.CartItem{*item}
	return record, nil
}

// RemoveItem deletes one line from the cart. Removing an id that is not in
// the cart succeeds without changes.
func (s *service) RemoveItem(ctx context.Context, ownerKey string, itemID uuid.UUID) (*models.CartRecord, error) {
	if ownerKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner key is required")
	}
	record, err := s.repo.FindByOwnerKey(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.CartRecord{OwnerKey: ownerKey, Items: []models.CartItem{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	if _, err := s.repo.DeleteItem(ctx, record.ID, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}

	remaining := record.Items[:0]
	for _, item := range record.Items {
		if item.ID != itemID {
			remaining = append(remaining, item)
		}
	}
	record.Items = remaining
	return record, nil
}

// Clear drops the owner's cart entirely.
func (s *service) Clear(ctx context.Context, ownerKey string) error {
	if ownerKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner key is required")
	}
	if err := s.repo.DeleteByOwnerKey(ctx, ownerKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

func (s *service) snapshotItem(ctx context.Context, id uuid.UUID, kind enums.PurchasableKind, quantity int) (*models.CartItem, error) {
	switch kind {
	case enums.PurchasablePack:
		packs, err := s.catalog.LoadPurchasablePacks(ctx, []uuid.UUID{id})
		if err != nil {
			return nil, err
		}
		pack, ok := packs[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pack is not available for purchase")
		}
		return &models.CartItem{
			PurchasableID:   pack.ID,
			PurchasableKind: enums.PurchasablePack,
			Title:           pack.Title,
			ProducerName:    pack.ProducerName,
			UnitPriceCents:  pack.PriceCents,
			Quantity:        quantity,
			PreviewURL:      pack.CoverObjectPath,
		}, nil
	case enums.PurchasableSample:
		samples, err := s.catalog.LoadPurchasableSamples(ctx, []uuid.UUID{id})
		if err != nil {
			return nil, err
		}
		sample, ok := samples[id]
		if !ok || sample.PriceCents == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sample is not available for purchase")
		}
		return &models.CartItem{
			PurchasableID:   sample.ID,
			PurchasableKind: enums.PurchasableSample,
			Title:           sample.Title,
			ProducerName:    "",
			UnitPriceCents:  *sample.PriceCents,
			Quantity:        quantity,
		}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown purchasable kind")
	}
}
