package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
	"github.com/sampleforge/sampleforge-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes order reads and the guest-order claim flow.
type Service interface {
	GetForAccount(ctx context.Context, orderID, accountID uuid.UUID) (*models.Order, error)
	Status(ctx context.Context, orderID uuid.UUID) (*StatusView, error)
	ListForAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Summary, error)
	Claim(ctx context.Context, accountID uuid.UUID, accountEmail string) (*ClaimResult, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	events outboxEmitter
	logg   *logger.Logger
}

// NewService builds an orders service backed by the provided stack.
func NewService(repo Repository, tx txRunner, events outboxEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, events: events, logg: logg}, nil
}

// GetForAccount loads one order the account owns. Orders belonging to other
// accounts, and unclaimed guest orders, read as not found.
func (s *service) GetForAccount(ctx context.Context, orderID, accountID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil || accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and account id are required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.OwnerAccountID == nil || *order.OwnerAccountID != accountID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// Status serves the success-page polling endpoint. The payload is
// deliberately minimal because the caller may be unauthenticated.
func (s *service) Status(ctx context.Context, orderID uuid.UUID) (*StatusView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return &StatusView{
		OrderID:   order.ID,
		Status:    order.Status,
		UpdatedAt: order.UpdatedAt,
	}, nil
}

func (s *service) ListForAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Summary, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	rows, err := s.repo.ListByOwner(ctx, accountID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	summaries := make([]Summary, 0, len(rows))
	for _, order := range rows {
		summaries = append(summaries, Summary{
			OrderID:    order.ID,
			Status:     order.Status,
			TotalCents: order.TotalCents,
			Currency:   order.Currency,
			ItemCount:  len(order.LineItems),
			CreatedAt:  order.CreatedAt,
		})
	}
	return summaries, nil
}

// Claim attaches unclaimed guest orders with a matching email to the
// account. Safe to call on every login: a second run finds nothing left to
// claim and reports zero.
func (s *service) Claim(ctx context.Context, accountID uuid.UUID, accountEmail string) (*ClaimResult, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	email := strings.ToLower(strings.TrimSpace(accountEmail))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account email is required")
	}

	var claimed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		claimed, err = s.repo.WithTx(tx).ClaimByEmail(ctx, accountID, email)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderClaimed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   accountID,
			Actor:         &outbox.ActorRef{AccountID: accountID, Email: email},
			Data: map[string]interface{}{
				"accountId":    accountID,
				"claimedCount": claimed,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claiming orders")
	}

	if s.logg != nil && claimed > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"account_id":    accountID.String(),
			"claimed_count": claimed,
		})
		s.logg.Info(logCtx, "guest orders claimed")
	}
	return &ClaimResult{ClaimedCount: claimed}, nil
}
