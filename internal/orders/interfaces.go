package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
)

// Repository encapsulates order persistence. Status transitions are
// conditional updates guarded on the current status so that webhook
// redeliveries cannot re-run a transition.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	ListByOwner(ctx context.Context, ownerAccountID uuid.UUID, limit, offset int) ([]models.Order, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	MarkCompleted(ctx context.Context, orderID uuid.UUID, ownerAccountID *uuid.UUID) (bool, error)
	MarkCancelled(ctx context.Context, orderID uuid.UUID) (bool, error)
	ClaimByEmail(ctx context.Context, accountID uuid.UUID, email string) (int64, error)
	FindLineItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error)
}
