package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/api/middleware"
	"github.com/sampleforge/sampleforge-backend/api/responses"
	"github.com/sampleforge/sampleforge-backend/api/validators"
	"github.com/sampleforge/sampleforge-backend/internal/grants"
	"github.com/sampleforge/sampleforge-backend/internal/orders"
	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

// OrderStatus serves the unauthenticated post-checkout polling endpoint. The
// order id is an unguessable capability, so the payload stays minimal.
func OrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.Status(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// MyOrders lists the authenticated account's orders.
func MyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID, err := requireAccountID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
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

		summaries, err := svc.ListForAccount(ctx, accountID, limit, offset)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, summaries)
	}
}

type orderLineItemView struct {
	PurchasableID   uuid.UUID `json:"purchasableId"`
	PurchasableKind string    `json:"purchasableKind"`
	Title           string    `json:"title"`
	UnitPriceCents  int       `json:"unitPriceCents"`
	Quantity        int       `json:"quantity"`
}

type grantView struct {
	SampleID           uuid.UUID `json:"sampleId"`
	Token              string    `json:"token"`
	RemainingDownloads int       `json:"remainingDownloads"`
	ExpiresAt          time.Time `json:"expiresAt"`
}

type orderDetailView struct {
	OrderID    uuid.UUID           `json:"orderId"`
	Status     string              `json:"status"`
	TotalCents int                 `json:"totalCents"`
	Currency   string              `json:"currency"`
	CreatedAt  time.Time           `json:"createdAt"`
	LineItems  []orderLineItemView `json:"lineItems"`
	Grants     []grantView         `json:"grants"`
}

func toOrderDetailView(order *models.Order, orderGrants []models.DownloadGrant) orderDetailView {
	view := orderDetailView{
		OrderID:    order.ID,
		Status:     string(order.Status),
		TotalCents: order.TotalCents,
		Currency:   string(order.Currency),
		CreatedAt:  order.CreatedAt,
		LineItems:  make([]orderLineItemView, 0, len(order.LineItems)),
		Grants:     make([]grantView, 0, len(orderGrants)),
	}
	for _, item := range order.LineItems {
		view.LineItems = append(view.LineItems, orderLineItemView{
			PurchasableID:   item.PurchasableID,
			PurchasableKind: string(item.PurchasableKind),
			Title:           item.Title,
			UnitPriceCents:  item.UnitPriceCents,
			Quantity:        item.Quantity,
		})
	}
	for _, grant := range orderGrants {
		remaining := grant.MaxDownloads - grant.DownloadCount
		if remaining < 0 {
			remaining = 0
		}
		view.Grants = append(view.Grants, grantView{
			SampleID:           grant.SampleID,
			Token:              grant.Token,
			RemainingDownloads: remaining,
			ExpiresAt:          grant.ExpiresAt,
		})
	}
	return view
}

// MyOrderDetail returns one of the account's orders with its download grants.
func MyOrderDetail(ordersSvc orders.Service, grantsSvc grants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID, err := requireAccountID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := ordersSvc.GetForAccount(ctx, orderID, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderGrants, err := grantsSvc.ListForOrder(ctx, order.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderDetailView(order, orderGrants))
	}
}

// ClaimOrders attaches historical guest orders matching the account's email.
func ClaimOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountID, err := requireAccountID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Claim(ctx, accountID, middleware.AccountEmailFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func requireAccountID(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.AccountIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	accountID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "malformed account id in context")
	}
	return accountID, nil
}
