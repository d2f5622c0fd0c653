package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/sampleforge/sampleforge-backend/pkg/auth"
	"github.com/sampleforge/sampleforge-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "sampleforge-test",
		ExpirationMinutes: 15,
	}
}

func captureContext(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (accountID, email string, status int) {
	t.Helper()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID = AccountIDFromContext(r.Context())
		email = AccountEmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return accountID, email, rec.Code
}

func TestOptionalAuthSeedsAccount(t *testing.T) {
	cfg := testJWTConfig()
	wantID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		AccountID: wantID,
		Email:     "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	accountID, email, status := captureContext(t, OptionalAuth(cfg, nil), req)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if accountID != wantID.String() {
		t.Fatalf("account id = %q, want %q", accountID, wantID)
	}
	if email != "buyer@example.com" {
		t.Fatalf("email = %q", email)
	}
}

func TestOptionalAuthInvalidTokenDegradesToGuest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	accountID, _, status := captureContext(t, OptionalAuth(testJWTConfig(), nil), req)
	if status != http.StatusOK {
		t.Fatalf("invalid token must not fail the request, got status %d", status)
	}
	if accountID != "" {
		t.Fatalf("invalid token must not authenticate, got account %q", accountID)
	}
}

func TestRequireAuthRejectsGuests(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, _, status := captureContext(t, RequireAuth(nil), req)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}
