package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/internal/cart"
	"github.com/sampleforge/sampleforge-backend/internal/checkout"
	"github.com/sampleforge/sampleforge-backend/internal/grants"
	"github.com/sampleforge/sampleforge-backend/internal/orders"
	pkgauth "github.com/sampleforge/sampleforge-backend/pkg/auth"
	"github.com/sampleforge/sampleforge-backend/pkg/config"
	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
	"github.com/sampleforge/sampleforge-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type routerCartService struct{}

func (routerCartService) Get(ctx context.Context, ownerKey string) (*models.CartRecord, error) {
	return &models.CartRecord{OwnerKey: ownerKey, Items: []models.CartItem{}}, nil
}

func (routerCartService) ReplaceWithPurchasable(ctx context.Context, ownerKey string, input cart.ReplaceInput) (*models.CartRecord, error) {
	return &models.CartRecord{OwnerKey: ownerKey, Items: []models.CartItem{}}, nil
}

func (routerCartService) RemoveItem(ctx context.Context, ownerKey string, itemID uuid.UUID) (*models.CartRecord, error) {
	return &models.CartRecord{OwnerKey: ownerKey, Items: []models.CartItem{}}, nil
}

func (routerCartService) Clear(ctx context.Context, ownerKey string) error {
	return nil
}

type routerOrdersService struct{}

func (routerOrdersService) GetForAccount(ctx context.Context, orderID, accountID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: enums.OrderCompleted}, nil
}

func (routerOrdersService) Status(ctx context.Context, orderID uuid.UUID) (*orders.StatusView, error) {
	return &orders.StatusView{OrderID: orderID, Status: enums.OrderPending, UpdatedAt: time.Now()}, nil
}

func (routerOrdersService) ListForAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]orders.Summary, error) {
	return []orders.Summary{}, nil
}

func (routerOrdersService) Claim(ctx context.Context, accountID uuid.UUID, accountEmail string) (*orders.ClaimResult, error) {
	return &orders.ClaimResult{}, nil
}

type routerGrantsService struct{}

func (routerGrantsService) Redeem(ctx context.Context, token string) (*grants.RedeemResult, error) {
	return &grants.RedeemResult{DownloadURL: "https://storage.example.com/signed"}, nil
}

func (routerGrantsService) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.DownloadGrant, error) {
	return nil, nil
}

type routerCheckoutService struct{}

func (routerCheckoutService) Start(ctx context.Context, input checkout.StartInput) (*checkout.StartResult, error) {
	return &checkout.StartResult{OrderID: uuid.New(), RedirectURL: "https://pay.example.com"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "sampleforge-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter() http.Handler {
	return NewRouter(
		testConfig(),
		nil,
		stubPinger{},
		stubPinger{},
		nil,
		routerCartService{},
		routerCheckoutService{},
		routerOrdersService{},
		routerGrantsService{},
		nil,
		nil,
		nil,
		nil,
	)
}

func TestRouterHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRouterHealthReady(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouterCartIssuesGuestSession(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cart-Session") == "" {
		t.Fatal("guest cart requests must receive a session id")
	}
}

func TestRouterMeRoutesRequireAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRouterMeRoutesAcceptBearerToken(t *testing.T) {
	cfg := testConfig()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		AccountID: uuid.New(),
		Email:     "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouterOrderStatusIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := body.Data.(map[string]any)
	if data["status"] != string(enums.OrderPending) {
		t.Fatalf("status field = %v", data["status"])
	}
}

func TestRouterDownloadRedirects(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/tok-abc", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
}
