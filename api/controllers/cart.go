package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/api/middleware"
	"github.com/sampleforge/sampleforge-backend/api/responses"
	"github.com/sampleforge/sampleforge-backend/api/validators"
	"github.com/sampleforge/sampleforge-backend/internal/cart"
	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

type cartItemView struct {
	ID              uuid.UUID `json:"id"`
	PurchasableID   uuid.UUID `json:"purchasableId"`
	PurchasableKind string    `json:"purchasableKind"`
	Title           string    `json:"title"`
	ProducerName    string    `json:"producerName"`
	UnitPriceCents  int       `json:"unitPriceCents"`
	Quantity        int       `json:"quantity"`
	PreviewURL      *string   `json:"previewUrl,omitempty"`
}

type cartView struct {
	Items      []cartItemView `json:"items"`
	TotalCents int            `json:"totalCents"`
}

func toCartView(record *models.CartRecord) cartView {
	view := cartView{Items: make([]cartItemView, 0, len(record.Items))}
	for _, item := range record.Items {
		view.Items = append(view.Items, cartItemView{
			ID:              item.ID,
			PurchasableID:   item.PurchasableID,
			PurchasableKind: string(item.PurchasableKind),
			Title:           item.Title,
			ProducerName:    item.ProducerName,
			UnitPriceCents:  item.UnitPriceCents,
			Quantity:        item.Quantity,
			PreviewURL:      item.PreviewURL,
		})
		view.TotalCents += item.UnitPriceCents * item.Quantity
	}
	return view
}

// CartFetch returns the shopper's current cart; an absent cart reads as empty.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		record, err := svc.Get(ctx, middleware.CartKeyFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(record))
	}
}

type cartReplaceRequest struct {
	PurchasableID   uuid.UUID `json:"purchasableId" validate:"required"`
	PurchasableKind string    `json:"purchasableKind" validate:"required"`
	Quantity        int       `json:"quantity" validate:"omitempty,min=1,max=10"`
}

// CartReplace swaps the cart's contents for the submitted purchasable.
func CartReplace(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req cartReplaceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		kind, err := enums.ParsePurchasableKind(req.PurchasableKind)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchasable kind"))
			return
		}

		record, err := svc.ReplaceWithPurchasable(ctx, middleware.CartKeyFromContext(ctx), cart.ReplaceInput{
			PurchasableID:   req.PurchasableID,
			PurchasableKind: kind,
			Quantity:        req.Quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(record))
	}
}

// CartRemoveItem drops one line from the cart; removing an absent line succeeds.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		itemID, err := validators.ParsePathUUID(r, "lineItemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record, err := svc.RemoveItem(ctx, middleware.CartKeyFromContext(ctx), itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(record))
	}
}
