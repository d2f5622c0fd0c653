package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/api/responses"
	"github.com/sampleforge/sampleforge-backend/api/validators"
	"github.com/sampleforge/sampleforge-backend/internal/catalog"
	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

type packSummaryView struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	ProducerName string    `json:"producerName"`
	PriceCents   int       `json:"priceCents"`
	Currency     string    `json:"currency"`
	CoverPath    *string   `json:"coverPath,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
}

type sampleView struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	PriceCents      *int      `json:"priceCents,omitempty"`
	DurationSeconds *float64  `json:"durationSeconds,omitempty"`
	BPM             *int      `json:"bpm,omitempty"`
	KeySignature    *string   `json:"keySignature,omitempty"`
}

type packDetailView struct {
	packSummaryView
	Samples []sampleView `json:"samples"`
}

func toPackSummaryView(pack models.Pack) packSummaryView {
	return packSummaryView{
		ID:           pack.ID,
		Slug:         pack.Slug,
		Title:        pack.Title,
		ProducerName: pack.ProducerName,
		PriceCents:   pack.PriceCents,
		Currency:     string(pack.Currency),
		CoverPath:    pack.CoverObjectPath,
		Tags:         pack.Tags,
	}
}

// CatalogList serves the storefront browse page.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 10000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		packs, err := svc.ListPublished(ctx, limit, offset)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		views := make([]packSummaryView, 0, len(packs))
		for _, pack := range packs {
			views = append(views, toPackSummaryView(pack))
		}
		responses.WriteSuccess(w, views)
	}
}

// CatalogDetail resolves a pack by id or slug and includes its samples.
func CatalogDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ref := strings.TrimSpace(chi.URLParam(r, "packRef"))
		if ref == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "pack reference is required"))
			return
		}

		var (
			pack *models.Pack
			err  error
		)
		if id, parseErr := uuid.Parse(ref); parseErr == nil {
			pack, err = svc.GetPack(ctx, id)
		} else {
			pack, err = svc.GetPackBySlug(ctx, ref)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		samples, err := svc.SamplesForPacks(ctx, []uuid.UUID{pack.ID})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view := packDetailView{
			packSummaryView: toPackSummaryView(*pack),
			Samples:         make([]sampleView, 0, len(samples)),
		}
		for _, sample := range samples {
			view.Samples = append(view.Samples, sampleView{
				ID:              sample.ID,
				Title:           sample.Title,
				PriceCents:      sample.PriceCents,
				DurationSeconds: sample.DurationSeconds,
				BPM:             sample.BPM,
				KeySignature:    sample.KeySignature,
			})
		}
		responses.WriteSuccess(w, view)
	}
}
