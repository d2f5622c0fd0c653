package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/internal/grants"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
)

func downloadRouter(svc grants.Service) http.Handler {
	router := chi.NewRouter()
	router.Get("/download/{token}", Download(svc, nil))
	return router
}

func TestDownloadRedirectsToSignedURL(t *testing.T) {
	svc := &stubGrantsService{redeem: &grants.RedeemResult{
		DownloadURL:        "https://storage.example.com/signed/kick.wav",
		SampleID:           uuid.New(),
		RemainingDownloads: 2,
	}}

	req := httptest.NewRequest(http.MethodGet, "/download/tok-abc", nil)
	rec := httptest.NewRecorder()
	downloadRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://storage.example.com/signed/kick.wav" {
		t.Fatalf("location = %q", loc)
	}
}

func TestDownloadUnknownToken(t *testing.T) {
	svc := &stubGrantsService{err: pkgerrors.New(pkgerrors.CodeGrantNotFound, "download link not found")}

	req := httptest.NewRequest(http.MethodGet, "/download/tok-missing", nil)
	rec := httptest.NewRecorder()
	downloadRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDownloadExpiredToken(t *testing.T) {
	svc := &stubGrantsService{err: pkgerrors.New(pkgerrors.CodeGrantExpired, "download link expired")}

	req := httptest.NewRequest(http.MethodGet, "/download/tok-old", nil)
	rec := httptest.NewRecorder()
	downloadRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", rec.Code)
	}
}

func TestDownloadExhaustedToken(t *testing.T) {
	svc := &stubGrantsService{err: pkgerrors.New(pkgerrors.CodeGrantExhausted, "download limit reached")}

	req := httptest.NewRequest(http.MethodGet, "/download/tok-used", nil)
	rec := httptest.NewRecorder()
	downloadRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
