package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/outbox"
)

type stubOrdersRepo struct {
	orders       map[uuid.UUID]*models.Order
	claimedCount int64
	claimCalls   int
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrdersRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.PaymentSessionID != nil && *order.PaymentSessionID == sessionID {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ListByOwner(ctx context.Context, ownerAccountID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.OwnerAccountID != nil && *order.OwnerAccountID == ownerAccountID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubOrdersRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	if order, ok := s.orders[orderID]; ok {
		order.PaymentSessionID = &sessionID
	}
	return nil
}

func (s *stubOrdersRepo) MarkCompleted(ctx context.Context, orderID uuid.UUID, ownerAccountID *uuid.UUID) (bool, error) {
	order, ok := s.orders[orderID]
	if !ok || order.Status != enums.OrderPending {
		return false, nil
	}
	order.Status = enums.OrderCompleted
	if order.OwnerAccountID == nil {
		order.OwnerAccountID = ownerAccountID
	}
	return true, nil
}

func (s *stubOrdersRepo) MarkCancelled(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, ok := s.orders[orderID]
	if !ok || order.Status != enums.OrderPending {
		return false, nil
	}
	order.Status = enums.OrderCancelled
	return true, nil
}

func (s *stubOrdersRepo) ClaimByEmail(ctx context.Context, accountID uuid.UUID, email string) (int64, error) {
	s.claimCalls++
	var claimed int64
	for _, order := range s.orders {
		if order.OwnerAccountID == nil && order.CustomerEmail == email {
			order.OwnerAccountID = &accountID
			claimed++
		}
	}
	s.claimedCount = claimed
	return claimed, nil
}

func (s *stubOrdersRepo) FindLineItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order.LineItems, nil
}

type stubOrdersTx struct{}

func (stubOrdersTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newOrdersService(t *testing.T, repo *stubOrdersRepo, emitter *stubEmitter) Service {
	t.Helper()
	svc, err := NewService(repo, stubOrdersTx{}, emitter, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestGetForAccountHidesForeignOrders(t *testing.T) {
	t.Parallel()

	repo := newStubOrdersRepo()
	owner := uuid.New()
	stranger := uuid.New()
	order, _ := repo.Create(context.Background(), &models.Order{
		OwnerAccountID: &owner,
		CustomerEmail:  "buyer@example.com",
		Status:         enums.OrderCompleted,
	})

	svc := newOrdersService(t, repo, &stubEmitter{})

	if _, err := svc.GetForAccount(context.Background(), order.ID, owner); err != nil {
		t.Fatalf("owner should see the order: %v", err)
	}

	_, err := svc.GetForAccount(context.Background(), order.ID, stranger)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("foreign order should read as not found, got %v", err)
	}
}

func TestGetForAccountHidesUnclaimedGuestOrders(t *testing.T) {
	t.Parallel()

	repo := newStubOrdersRepo()
	order, _ := repo.Create(context.Background(), &models.Order{
		CustomerEmail: "guest@example.com",
		Status:        enums.OrderCompleted,
	})

	svc := newOrdersService(t, repo, &stubEmitter{})

	_, err := svc.GetForAccount(context.Background(), order.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unclaimed guest order should read as not found, got %v", err)
	}
}

func TestStatusIsPublicAndMinimal(t *testing.T) {
	t.Parallel()

	repo := newStubOrdersRepo()
	order, _ := repo.Create(context.Background(), &models.Order{
		CustomerEmail: "guest@example.com",
		Status:        enums.OrderPending,
	})

	svc := newOrdersService(t, repo, &stubEmitter{})

	view, err := svc.Status(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.OrderID != order.ID || view.Status != enums.OrderPending {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestClaimEmitsEventOnlyWhenOrdersClaimed(t *testing.T) {
	t.Parallel()

	repo := newStubOrdersRepo()
	repo.Create(context.Background(), &models.Order{
		CustomerEmail: "newuser@example.com",
		Status:        enums.OrderCompleted,
	})
	emitter := &stubEmitter{}
	svc := newOrdersService(t, repo, emitter)

	account := uuid.New()
	result, err := svc.Claim(context.Background(), account, "NewUser@Example.com")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.ClaimedCount != 1 {
		t.Fatalf("claimed = %d, want 1", result.ClaimedCount)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(emitter.events))
	}
	if emitter.events[0].EventType != enums.EventOrderClaimed {
		t.Fatalf("event type = %s", emitter.events[0].EventType)
	}

	result, err = svc.Claim(context.Background(), account, "newuser@example.com")
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if result.ClaimedCount != 0 {
		t.Fatalf("second claim should find nothing, got %d", result.ClaimedCount)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("no event expected for a zero claim, got %d", len(emitter.events))
	}
}
