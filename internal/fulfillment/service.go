package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
	"github.com/sampleforge/sampleforge-backend/pkg/metrics"
	"github.com/sampleforge/sampleforge-backend/pkg/outbox"

	"github.com/sampleforge/sampleforge-backend/internal/grants"
	"github.com/sampleforge/sampleforge-backend/internal/notifications"
	"github.com/sampleforge/sampleforge-backend/internal/orders"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type sampleCatalog interface {
	SamplesForPacks(ctx context.Context, packIDs []uuid.UUID) ([]models.Sample, error)
	GetSample(ctx context.Context, id uuid.UUID) (*models.Sample, error)
}

// CompletedPayment carries what the payment webhook knows about a finished
// session: the order it belongs to and, for logged-in checkouts, the account
// to attach.
type CompletedPayment struct {
	SessionID      string
	OrderID        uuid.UUID
	OwnerAccountID *uuid.UUID
}

// Service turns a completed payment into download grants and a purchase
// confirmation.
type Service interface {
	FulfillOrder(ctx context.Context, payment CompletedPayment) error
	CancelOrder(ctx context.Context, orderID uuid.UUID) error
}

// ServiceParams collects the fulfillment dependencies.
type ServiceParams struct {
	OrdersRepo   orders.Repository
	GrantsRepo   grants.GrantRepository
	Catalog      sampleCatalog
	Tx           txRunner
	Events       outboxEmitter
	Metrics      *metrics.PipelineMetrics
	Logger       *logger.Logger
	MaxDownloads int
	GrantTTL     time.Duration
}

type service struct {
	ordersRepo   orders.Repository
	grantsRepo   grants.GrantRepository
	catalog      sampleCatalog
	tx           txRunner
	events       outboxEmitter
	metrics      *metrics.PipelineMetrics
	logg         *logger.Logger
	maxDownloads int
	grantTTL     time.Duration
	now          func() time.Time
}

// NewService builds the fulfillment service.
func NewService(params ServiceParams) (Service, error) {
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.GrantsRepo == nil {
		return nil, fmt.Errorf("grants repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.MaxDownloads <= 0 {
		return nil, fmt.Errorf("max downloads must be positive")
	}
	if params.GrantTTL <= 0 {
		return nil, fmt.Errorf("grant ttl must be positive")
	}
	return &service{
		ordersRepo:   params.OrdersRepo,
		grantsRepo:   params.GrantsRepo,
		catalog:      params.Catalog,
		tx:           params.Tx,
		events:       params.Events,
		metrics:      params.Metrics,
		logg:         params.Logger,
		maxDownloads: params.MaxDownloads,
		grantTTL:     params.GrantTTL,
		now:          time.Now,
	}, nil
}

// FulfillOrder completes the order and mints its download grants. The
// completion transition is the idempotency pivot: only the call that flips
// the order from pending to completed runs the remaining steps, so webhook
// redeliveries fall out here as no-ops. Failures after the transition do
// not undo it; the order stays completed and the error reports the partial
// state.
func (s *service) FulfillOrder(ctx context.Context, payment CompletedPayment) error {
	start := s.now()
	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderID(ctx, payment.OrderID.String())
		if payment.SessionID != "" {
			logCtx = s.logg.WithSessionRef(logCtx, payment.SessionID)
		}
	}

	var transitioned bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		transitioned, err = s.ordersRepo.WithTx(tx).MarkCompleted(ctx, payment.OrderID, payment.OwnerAccountID)
		if err != nil {
			return err
		}
		if !transitioned {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderFulfilled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   payment.OrderID,
			Data:          map[string]interface{}{"sessionId": payment.SessionID},
			Version:       1,
		})
	})
	if err != nil {
		s.observe("error", start)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "completing order")
	}

	if !transitioned {
		s.logSkippedTransition(ctx, logCtx, payment.OrderID)
		s.observe("duplicate", start)
		return nil
	}

	if err := s.mintAndNotify(ctx, payment.OrderID); err != nil {
		s.observe("partial_failure", start)
		if s.logg != nil {
			s.logg.Error(logCtx, "order completed but grant minting or notification failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeFulfillmentPartial, err, "fulfilling order")
	}

	s.observe("success", start)
	if s.logg != nil {
		s.logg.Info(logCtx, "order fulfilled")
	}
	return nil
}

// CancelOrder handles a payment session that expired without completing.
// Terminal orders are left alone.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	var transitioned bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		transitioned, err = s.ordersRepo.WithTx(tx).MarkCancelled(ctx, orderID)
		if err != nil {
			return err
		}
		if !transitioned {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Version:       1,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
	}
	if !transitioned && s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "expiry ignored; order already terminal")
	}
	return nil
}

func (s *service) mintAndNotify(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading completed order: %w", err)
	}

	samples, packTitles, err := s.expandLineItems(ctx, order.LineItems)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return errors.New("order resolves to no downloadable samples")
	}

	expiresAt := s.now().Add(s.grantTTL)
	minted := make([]models.DownloadGrant, 0, len(samples))
	for _, sample := range samples {
		token, err := grants.NewToken()
		if err != nil {
			return err
		}
		minted = append(minted, models.DownloadGrant{
			Token:         token,
			OrderID:       order.ID,
			SampleID:      sample.ID,
			PackID:        sample.PackID,
			CustomerEmail: order.CustomerEmail,
			MaxDownloads:  s.maxDownloads,
			DownloadCount: 0,
			ExpiresAt:     expiresAt,
		})
	}

	confirmation := buildConfirmation(order, minted, samples, packTitles)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.grantsRepo.WithTx(tx).CreateBatch(ctx, minted); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGrantsMinted,
			AggregateType: enums.AggregateGrant,
			AggregateID:   order.ID,
			Data:          map[string]interface{}{"grantCount": len(minted)},
			Version:       1,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   order.ID,
			Data:          confirmation,
			Version:       1,
		})
	})
	if err != nil {
		return fmt.Errorf("persisting grants: %w", err)
	}

	s.metrics.AddGrantsMinted(len(minted))
	return nil
}

// expandLineItems resolves order lines to the individual samples they
// entitle the buyer to: every sample of a pack line, or the single sample
// of a standalone line.
func (s *service) expandLineItems(ctx context.Context, items []models.OrderLineItem) ([]models.Sample, map[uuid.UUID]string, error) {
	packTitles := map[uuid.UUID]string{}
	var packIDs []uuid.UUID
	var out []models.Sample
	seen := map[uuid.UUID]struct{}{}

	for _, item := range items {
		switch item.PurchasableKind {
		case enums.PurchasablePack:
			packIDs = append(packIDs, item.PurchasableID)
			packTitles[item.PurchasableID] = item.Title
		case enums.PurchasableSample:
			sample, err := s.catalog.GetSample(ctx, item.PurchasableID)
			if err != nil {
				return nil, nil, fmt.Errorf("resolving sample line: %w", err)
			}
			if _, dup := seen[sample.ID]; !dup {
				seen[sample.ID] = struct{}{}
				out = append(out, *sample)
			}
		default:
			return nil, nil, fmt.Errorf("order line has unknown purchasable kind %q", item.PurchasableKind)
		}
	}

	if len(packIDs) > 0 {
		packSamples, err := s.catalog.SamplesForPacks(ctx, packIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving pack samples: %w", err)
		}
		for _, sample := range packSamples {
			if _, dup := seen[sample.ID]; !dup {
				seen[sample.ID] = struct{}{}
				out = append(out, sample)
			}
		}
	}
	return out, packTitles, nil
}

func buildConfirmation(order *models.Order, minted []models.DownloadGrant, samples []models.Sample, packTitles map[uuid.UUID]string) notifications.PurchaseConfirmation {
	titleBySample := make(map[uuid.UUID]string, len(samples))
	for _, sample := range samples {
		titleBySample[sample.ID] = sample.Title
	}

	groups := map[uuid.UUID]*notifications.PackGroup{}
	for _, grant := range minted {
		group, ok := groups[grant.PackID]
		if !ok {
			title := packTitles[grant.PackID]
			if title == "" {
				title = titleBySample[grant.SampleID]
			}
			group = &notifications.PackGroup{PackID: grant.PackID, PackTitle: title}
			groups[grant.PackID] = group
		}
		group.Grants = append(group.Grants, notifications.GrantLink{
			SampleID:     grant.SampleID,
			SampleTitle:  titleBySample[grant.SampleID],
			Token:        grant.Token,
			MaxDownloads: grant.MaxDownloads,
			ExpiresAt:    grant.ExpiresAt,
		})
	}

	packs := make([]notifications.PackGroup, 0, len(groups))
	for _, group := range groups {
		packs = append(packs, *group)
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].PackTitle < packs[j].PackTitle })

	return notifications.PurchaseConfirmation{
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		TotalCents:    order.TotalCents,
		Currency:      order.Currency,
		Packs:         packs,
	}
}

func (s *service) logSkippedTransition(ctx, logCtx context.Context, orderID uuid.UUID) {
	if s.logg == nil {
		return
	}
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		s.logg.Error(logCtx, "completion skipped for unknown order", err)
		return
	}
	switch order.Status {
	case enums.OrderCompleted:
		s.logg.Info(logCtx, "completion already processed; redelivery ignored")
	case enums.OrderCancelled:
		s.logg.Warn(logCtx, "completion received for a cancelled order")
	default:
		s.logg.Warn(logCtx, "completion transition did not apply")
	}
}

func (s *service) observe(outcome string, start time.Time) {
	s.metrics.ObserveFulfillment(outcome, s.now().Sub(start))
}
