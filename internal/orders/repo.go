package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("payment_session_id = ?", sessionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerAccountID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var rows []models.Order
	query := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("owner_account_id = ?", ownerAccountID).
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

// ListStalePending returns pending orders created before the cutoff. These
// are orders whose payment session was never completed or expired, left
// behind when session creation failed or the shopper walked away.
func (r *repository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	query := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("payment_session_id", sessionID).Error
}

// MarkCompleted transitions the order from pending to completed and
// back-fills the owner when the order does not have one yet. Returns false
// when the order was not pending, which is how redelivered webhooks detect
// work already done.
func (r *repository) MarkCompleted(ctx context.Context, orderID uuid.UUID, ownerAccountID *uuid.UUID) (bool, error) {
	updates := map[string]interface{}{
		"status":     enums.OrderCompleted,
		"updated_at": time.Now(),
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	if ownerAccountID != nil && *ownerAccountID != uuid.Nil {
		err := r.db.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ? AND owner_account_id IS NULL", orderID).
			Update("owner_account_id", *ownerAccountID).Error
		if err != nil {
			return true, err
		}
	}
	return true, nil
}

// MarkCancelled transitions the order from pending to cancelled. Expiry
// events for orders that already completed are ignored upstream; the status
// guard here makes the transition safe regardless.
func (r *repository) MarkCancelled(ctx context.Context, orderID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderPending).
		Updates(map[string]interface{}{
			"status":     enums.OrderCancelled,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClaimByEmail attaches ownerless orders with a matching customer email to
// the account. Running it again claims nothing and reports zero.
func (r *repository) ClaimByEmail(ctx context.Context, accountID uuid.UUID, email string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("owner_account_id IS NULL AND customer_email = ?", email).
		Update("owner_account_id", accountID)
	return result.RowsAffected, result.Error
}

func (r *repository) FindLineItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error) {
	var items []models.OrderLineItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
