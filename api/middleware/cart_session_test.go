package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func cartKeyFor(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var key string
	handler := CartSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = CartKeyFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return key, rec
}

func TestCartSessionUsesAccountWhenAuthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Cart-Session", "forged-guest-id")
	req = req.WithContext(WithAccount(req.Context(), "11111111-1111-1111-1111-111111111111", "a@b.c"))

	key, _ := cartKeyFor(t, req)
	if key != "acct:11111111-1111-1111-1111-111111111111" {
		t.Fatalf("cart key = %q, want account-derived key", key)
	}
}

func TestCartSessionKeepsGuestSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Cart-Session", "guest-123")

	key, rec := cartKeyFor(t, req)
	if key != "guest:guest-123" {
		t.Fatalf("cart key = %q", key)
	}
	if rec.Header().Get("X-Cart-Session") != "guest-123" {
		t.Fatalf("session header must echo back, got %q", rec.Header().Get("X-Cart-Session"))
	}
}

func TestCartSessionMintsGuestSessionWhenMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	key, rec := cartKeyFor(t, req)
	issued := rec.Header().Get("X-Cart-Session")
	if issued == "" {
		t.Fatal("a fresh guest session id must be issued")
	}
	if key != "guest:"+issued {
		t.Fatalf("cart key %q does not match issued session %q", key, issued)
	}
}
