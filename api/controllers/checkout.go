package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/api/middleware"
	"github.com/sampleforge/sampleforge-backend/api/responses"
	"github.com/sampleforge/sampleforge-backend/api/validators"
	"github.com/sampleforge/sampleforge-backend/internal/checkout"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

type checkoutRequest struct {
	GuestEmail string `json:"guestEmail" validate:"omitempty,email"`
}

// Checkout converts the cart into a pending order and returns the hosted
// payment page URL the storefront redirects to.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req checkoutRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		input := checkout.StartInput{
			OwnerKey:     middleware.CartKeyFromContext(ctx),
			AccountEmail: middleware.AccountEmailFromContext(ctx),
			GuestEmail:   req.GuestEmail,
		}
		if raw := middleware.AccountIDFromContext(ctx); raw != "" {
			accountID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "malformed account id in context"))
				return
			}
			input.AccountID = &accountID
		}

		result, err := svc.Start(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
