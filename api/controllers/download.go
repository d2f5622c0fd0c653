package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sampleforge/sampleforge-backend/api/responses"
	"github.com/sampleforge/sampleforge-backend/internal/grants"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

// Download redeems a grant token and redirects to a short-lived signed URL
// for the underlying asset. Each successful redirect consumes one download.
func Download(svc grants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "download token is required"))
			return
		}

		result, err := svc.Redeem(ctx, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		http.Redirect(w, r, result.DownloadURL, http.StatusFound)
	}
}
