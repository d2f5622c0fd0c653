package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/outbox"

	"github.com/sampleforge/sampleforge-backend/internal/grants"
	"github.com/sampleforge/sampleforge-backend/internal/notifications"
	"github.com/sampleforge/sampleforge-backend/internal/orders"
)

type stubFulfillOrdersRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newStubFulfillOrdersRepo(rows ...*models.Order) *stubFulfillOrdersRepo {
	repo := &stubFulfillOrdersRepo{orders: map[uuid.UUID]*models.Order{}}
	for _, row := range rows {
		repo.orders[row.ID] = row
	}
	return repo
}

func (s *stubFulfillOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubFulfillOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubFulfillOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubFulfillOrdersRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubFulfillOrdersRepo) ListByOwner(ctx context.Context, ownerAccountID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubFulfillOrdersRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubFulfillOrdersRepo) SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	return nil
}

func (s *stubFulfillOrdersRepo) MarkCompleted(ctx context.Context, orderID uuid.UUID, ownerAccountID *uuid.UUID) (bool, error) {
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

func (s *stubFulfillOrdersRepo) MarkCancelled(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, ok := s.orders[orderID]
	if !ok || order.Status != enums.OrderPending {
		return false, nil
	}
	order.Status = enums.OrderCancelled
	return true, nil
}

func (s *stubFulfillOrdersRepo) ClaimByEmail(ctx context.Context, accountID uuid.UUID, email string) (int64, error) {
	return 0, nil
}

func (s *stubFulfillOrdersRepo) FindLineItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order.LineItems, nil
}

type stubFulfillGrantsRepo struct {
	minted   []models.DownloadGrant
	batchErr error
}

func (s *stubFulfillGrantsRepo) WithTx(tx *gorm.DB) grants.GrantRepository { return s }

func (s *stubFulfillGrantsRepo) CreateBatch(ctx context.Context, rows []models.DownloadGrant) error {
	if s.batchErr != nil {
		return s.batchErr
	}
	s.minted = append(s.minted, rows...)
	return nil
}

func (s *stubFulfillGrantsRepo) FindByToken(ctx context.Context, token string) (*models.DownloadGrant, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubFulfillGrantsRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.DownloadGrant, error) {
	return s.minted, nil
}

func (s *stubFulfillGrantsRepo) ConsumeDownload(ctx context.Context, grantID uuid.UUID) (bool, error) {
	return false, nil
}

type stubFulfillCatalog struct {
	samplesByPack map[uuid.UUID][]models.Sample
	samples       map[uuid.UUID]*models.Sample
}

func (s *stubFulfillCatalog) SamplesForPacks(ctx context.Context, packIDs []uuid.UUID) ([]models.Sample, error) {
	var out []models.Sample
	for _, id := range packIDs {
		out = append(out, s.samplesByPack[id]...)
	}
	return out, nil
}

func (s *stubFulfillCatalog) GetSample(ctx context.Context, id uuid.UUID) (*models.Sample, error) {
	sample, ok := s.samples[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sample, nil
}

type stubFulfillTx struct{}

func (stubFulfillTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubFulfillEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubFulfillEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func packOrderFixture() (*models.Order, *stubFulfillCatalog) {
	packID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		CustomerEmail: "buyer@example.com",
		Currency:      enums.CurrencyUSD,
		SubtotalCents: 1500,
		TotalCents:    1500,
		Status:        enums.OrderPending,
		LineItems: []models.OrderLineItem{{
			PurchasableID:   packID,
			PurchasableKind: enums.PurchasablePack,
			Title:           "Analog Drums",
			UnitPriceCents:  1500,
			Quantity:        1,
		}},
	}
	catalog := &stubFulfillCatalog{
		samplesByPack: map[uuid.UUID][]models.Sample{packID: {
			{ID: uuid.New(), PackID: packID, Title: "Kick 01", ObjectPath: "samples/kick01.wav"},
			{ID: uuid.New(), PackID: packID, Title: "Snare 01", ObjectPath: "samples/snare01.wav"},
		}},
	}
	return order, catalog
}

func newFulfillService(t *testing.T, ordersRepo *stubFulfillOrdersRepo, grantsRepo *stubFulfillGrantsRepo, catalog *stubFulfillCatalog, emitter *stubFulfillEmitter) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		OrdersRepo:   ordersRepo,
		GrantsRepo:   grantsRepo,
		Catalog:      catalog,
		Tx:           stubFulfillTx{},
		Events:       emitter,
		MaxDownloads: 3,
		GrantTTL:     7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestFulfillOrderMintsOneGrantPerSample(t *testing.T) {
	t.Parallel()

	order, catalog := packOrderFixture()
	ordersRepo := newStubFulfillOrdersRepo(order)
	grantsRepo := &stubFulfillGrantsRepo{}
	emitter := &stubFulfillEmitter{}
	svc := newFulfillService(t, ordersRepo, grantsRepo, catalog, emitter)

	owner := uuid.New()
	err := svc.FulfillOrder(context.Background(), CompletedPayment{
		SessionID:      "cs_test_123",
		OrderID:        order.ID,
		OwnerAccountID: &owner,
	})
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	if order.Status != enums.OrderCompleted {
		t.Fatalf("order status = %s", order.Status)
	}
	if order.OwnerAccountID == nil || *order.OwnerAccountID != owner {
		t.Fatal("owner should be back-filled from the payment metadata")
	}
	if len(grantsRepo.minted) != 2 {
		t.Fatalf("minted %d grants, want 2", len(grantsRepo.minted))
	}
	for _, grant := range grantsRepo.minted {
		if grant.Token == "" {
			t.Fatal("grant token must be set")
		}
		if grant.MaxDownloads != 3 || grant.DownloadCount != 0 {
			t.Fatalf("grant counters wrong: %+v", grant)
		}
		if grant.CustomerEmail != order.CustomerEmail {
			t.Fatalf("grant email = %q", grant.CustomerEmail)
		}
		if time.Until(grant.ExpiresAt) < 6*24*time.Hour {
			t.Fatalf("grant expiry too soon: %v", grant.ExpiresAt)
		}
	}

	var sawFulfilled, sawMinted bool
	var confirmation *notifications.PurchaseConfirmation
	for _, event := range emitter.events {
		switch event.EventType {
		case enums.EventOrderFulfilled:
			sawFulfilled = true
		case enums.EventGrantsMinted:
			sawMinted = true
		case enums.EventNotificationRequested:
			payload := event.Data.(notifications.PurchaseConfirmation)
			confirmation = &payload
		}
	}
	if !sawFulfilled || !sawMinted || confirmation == nil {
		t.Fatalf("expected fulfilled+minted+notification events, got %+v", emitter.events)
	}
	if confirmation.TotalCents != order.TotalCents || confirmation.CustomerEmail != order.CustomerEmail {
		t.Fatalf("confirmation header wrong: %+v", confirmation)
	}
	if len(confirmation.Packs) != 1 || len(confirmation.Packs[0].Grants) != 2 {
		t.Fatalf("confirmation grouping wrong: %+v", confirmation.Packs)
	}
	if confirmation.Packs[0].PackTitle != "Analog Drums" {
		t.Fatalf("pack title = %q", confirmation.Packs[0].PackTitle)
	}
}

func TestFulfillOrderIsIdempotent(t *testing.T) {
	t.Parallel()

	order, catalog := packOrderFixture()
	ordersRepo := newStubFulfillOrdersRepo(order)
	grantsRepo := &stubFulfillGrantsRepo{}
	emitter := &stubFulfillEmitter{}
	svc := newFulfillService(t, ordersRepo, grantsRepo, catalog, emitter)

	payment := CompletedPayment{SessionID: "cs_test_123", OrderID: order.ID}
	if err := svc.FulfillOrder(context.Background(), payment); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	mintedAfterFirst := len(grantsRepo.minted)
	eventsAfterFirst := len(emitter.events)

	if err := svc.FulfillOrder(context.Background(), payment); err != nil {
		t.Fatalf("redelivery should be a quiet no-op: %v", err)
	}
	if len(grantsRepo.minted) != mintedAfterFirst {
		t.Fatalf("redelivery minted grants: %d -> %d", mintedAfterFirst, len(grantsRepo.minted))
	}
	if len(emitter.events) != eventsAfterFirst {
		t.Fatal("redelivery emitted events")
	}
}

func TestFulfillOrderPartialFailureKeepsOrderCompleted(t *testing.T) {
	t.Parallel()

	order, catalog := packOrderFixture()
	ordersRepo := newStubFulfillOrdersRepo(order)
	grantsRepo := &stubFulfillGrantsRepo{batchErr: errors.New("insert failed")}
	svc := newFulfillService(t, ordersRepo, grantsRepo, catalog, &stubFulfillEmitter{})

	err := svc.FulfillOrder(context.Background(), CompletedPayment{OrderID: order.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeFulfillmentPartial {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if order.Status != enums.OrderCompleted {
		t.Fatalf("completion must not roll back, status = %s", order.Status)
	}
}

func TestCancelOrderIgnoresTerminalOrders(t *testing.T) {
	t.Parallel()

	order, catalog := packOrderFixture()
	order.Status = enums.OrderCompleted
	ordersRepo := newStubFulfillOrdersRepo(order)
	emitter := &stubFulfillEmitter{}
	svc := newFulfillService(t, ordersRepo, &stubFulfillGrantsRepo{}, catalog, emitter)

	if err := svc.CancelOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if order.Status != enums.OrderCompleted {
		t.Fatalf("status changed to %s", order.Status)
	}
	if len(emitter.events) != 0 {
		t.Fatal("no event expected for an ignored expiry")
	}
}

func TestCancelOrderCancelsPending(t *testing.T) {
	t.Parallel()

	order, catalog := packOrderFixture()
	ordersRepo := newStubFulfillOrdersRepo(order)
	emitter := &stubFulfillEmitter{}
	svc := newFulfillService(t, ordersRepo, &stubFulfillGrantsRepo{}, catalog, emitter)

	if err := svc.CancelOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if order.Status != enums.OrderCancelled {
		t.Fatalf("status = %s", order.Status)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventOrderCancelled {
		t.Fatalf("expected one cancellation event, got %+v", emitter.events)
	}
}

func TestFulfillOrderStandaloneSampleLine(t *testing.T) {
	t.Parallel()

	packID := uuid.New()
	sample := models.Sample{ID: uuid.New(), PackID: packID, Title: "808 Sub", ObjectPath: "samples/808.wav"}
	order := &models.Order{
		ID:            uuid.New(),
		CustomerEmail: "buyer@example.com",
		Currency:      enums.CurrencyUSD,
		TotalCents:    300,
		Status:        enums.OrderPending,
		LineItems: []models.OrderLineItem{{
			PurchasableID:   sample.ID,
			PurchasableKind: enums.PurchasableSample,
			Title:           "808 Sub",
			UnitPriceCents:  300,
			Quantity:        1,
		}},
	}
	catalog := &stubFulfillCatalog{samples: map[uuid.UUID]*models.Sample{sample.ID: &sample}}
	grantsRepo := &stubFulfillGrantsRepo{}
	svc := newFulfillService(t, newStubFulfillOrdersRepo(order), grantsRepo, catalog, &stubFulfillEmitter{})

	if err := svc.FulfillOrder(context.Background(), CompletedPayment{OrderID: order.ID}); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if len(grantsRepo.minted) != 1 {
		t.Fatalf("minted %d grants, want 1", len(grantsRepo.minted))
	}
	if grantsRepo.minted[0].SampleID != sample.ID || grantsRepo.minted[0].PackID != packID {
		t.Fatalf("grant wired wrong: %+v", grantsRepo.minted[0])
	}
}
