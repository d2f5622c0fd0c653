package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/api/middleware"
	"github.com/sampleforge/sampleforge-backend/internal/grants"
	"github.com/sampleforge/sampleforge-backend/internal/orders"
	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/types"
)

type stubOrdersService struct {
	status    *orders.StatusView
	statusErr error
	order     *models.Order
	orderErr  error
	summaries []orders.Summary
	claim     *orders.ClaimResult
}

func (s *stubOrdersService) GetForAccount(ctx context.Context, orderID, accountID uuid.UUID) (*models.Order, error) {
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	return s.order, nil
}

func (s *stubOrdersService) Status(ctx context.Context, orderID uuid.UUID) (*orders.StatusView, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.status, nil
}

func (s *stubOrdersService) ListForAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]orders.Summary, error) {
	return s.summaries, nil
}

func (s *stubOrdersService) Claim(ctx context.Context, accountID uuid.UUID, accountEmail string) (*orders.ClaimResult, error) {
	return s.claim, nil
}

type stubGrantsService struct {
	grants []models.DownloadGrant
	redeem *grants.RedeemResult
	err    error
}

func (s *stubGrantsService) Redeem(ctx context.Context, token string) (*grants.RedeemResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.redeem, nil
}

func (s *stubGrantsService) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.DownloadGrant, error) {
	return s.grants, nil
}

func TestOrderStatusIsPublic(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{status: &orders.StatusView{
		OrderID:   orderID,
		Status:    enums.OrderCompleted,
		UpdatedAt: time.Now(),
	}}

	router := chi.NewRouter()
	router.Get("/api/v1/orders/{orderId}", OrderStatus(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := body.Data.(map[string]any)
	if data["status"] != string(enums.OrderCompleted) {
		t.Fatalf("status field = %v", data["status"])
	}
	if _, leaked := data["customerEmail"]; leaked {
		t.Fatal("status payload must not leak customer data")
	}
}

func TestOrderStatusRejectsMalformedID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/v1/orders/{orderId}", OrderStatus(&stubOrdersService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMyOrdersRequiresAccount(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/orders", nil)
	rec := httptest.NewRecorder()
	MyOrders(&stubOrdersService{}, nil)(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMyOrderDetailIncludesGrants(t *testing.T) {
	accountID := uuid.New()
	orderID := uuid.New()
	ordersSvc := &stubOrdersService{order: &models.Order{
		ID:         orderID,
		Status:     enums.OrderCompleted,
		TotalCents: 2200,
		Currency:   enums.CurrencyUSD,
		LineItems: []models.OrderLineItem{{
			PurchasableID:   uuid.New(),
			PurchasableKind: enums.PurchasablePack,
			Title:           "Analog Drums",
			UnitPriceCents:  2200,
			Quantity:        1,
		}},
	}}
	grantsSvc := &stubGrantsService{grants: []models.DownloadGrant{{
		SampleID:      uuid.New(),
		Token:         "tok-1",
		MaxDownloads:  3,
		DownloadCount: 1,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}}}

	router := chi.NewRouter()
	router.Get("/api/v1/me/orders/{orderId}", MyOrderDetail(ordersSvc, grantsSvc, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/orders/"+orderID.String(), nil)
	req = req.WithContext(middleware.WithAccount(req.Context(), accountID.String(), "buyer@example.com"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := body.Data.(map[string]any)
	grantsField := data["grants"].([]any)
	if len(grantsField) != 1 {
		t.Fatalf("grants = %v", grantsField)
	}
	grant := grantsField[0].(map[string]any)
	if grant["remainingDownloads"].(float64) != 2 {
		t.Fatalf("remainingDownloads = %v", grant["remainingDownloads"])
	}
}

func TestMyOrderDetailHidesForeignOrders(t *testing.T) {
	ordersSvc := &stubOrdersService{orderErr: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}

	router := chi.NewRouter()
	router.Get("/api/v1/me/orders/{orderId}", MyOrderDetail(ordersSvc, &stubGrantsService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/orders/"+uuid.NewString(), nil)
	req = req.WithContext(middleware.WithAccount(req.Context(), uuid.NewString(), "buyer@example.com"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestClaimOrdersReturnsCount(t *testing.T) {
	svc := &stubOrdersService{claim: &orders.ClaimResult{ClaimedCount: 2}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/me/orders/claim", nil)
	req = req.WithContext(middleware.WithAccount(req.Context(), uuid.NewString(), "buyer@example.com"))
	rec := httptest.NewRecorder()
	ClaimOrders(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := body.Data.(map[string]any)
	if data["claimedCount"].(float64) != 2 {
		t.Fatalf("claimedCount = %v", data["claimedCount"])
	}
}
