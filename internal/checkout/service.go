package checkout

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	"github.com/sampleforge/sampleforge-backend/pkg/enums"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"

	"github.com/sampleforge/sampleforge-backend/internal/orders"
)

// Session metadata keys echoed back by payment webhooks. The owner key is
// empty for guest checkouts.
const (
	MetadataOrderID        = "order_id"
	MetadataOwnerAccountID = "owner_account_id"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartReader interface {
	Get(ctx context.Context, ownerKey string) (*models.CartRecord, error)
	Clear(ctx context.Context, ownerKey string) error
}

type catalogLoader interface {
	LoadPurchasablePacks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Pack, error)
	LoadPurchasableSamples(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Sample, error)
}

// StartInput identifies who is checking out. AccountID and AccountEmail are
// set from a verified token; guests must supply GuestEmail instead.
type StartInput struct {
	OwnerKey     string
	AccountID    *uuid.UUID
	AccountEmail string
	GuestEmail   string
}

// StartResult is returned to the storefront so it can redirect the shopper
// to the hosted payment page.
type StartResult struct {
	OrderID     uuid.UUID `json:"orderId"`
	RedirectURL string    `json:"redirectUrl"`
}

// Service drives checkout: it turns the cart into a pending order and a
// hosted payment session.
type Service interface {
	Start(ctx context.Context, input StartInput) (*StartResult, error)
}

// ServiceParams collects the checkout service dependencies.
type ServiceParams struct {
	Cart            cartReader
	Catalog         catalogLoader
	OrdersRepo      orders.Repository
	Tx              txRunner
	Stripe          StripeSessionClient
	Logger          *logger.Logger
	FrontendBaseURL string
}

type service struct {
	cart        cartReader
	catalog     catalogLoader
	ordersRepo  orders.Repository
	tx          txRunner
	stripe      StripeSessionClient
	logg        *logger.Logger
	frontendURL string
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe session client required")
	}
	if params.FrontendBaseURL == "" {
		return nil, fmt.Errorf("frontend base url required")
	}
	return &service{
		cart:        params.Cart,
		catalog:     params.Catalog,
		ordersRepo:  params.OrdersRepo,
		tx:          params.Tx,
		stripe:      params.Stripe,
		logg:        params.Logger,
		frontendURL: strings.TrimRight(params.FrontendBaseURL, "/"),
	}, nil
}

// Start validates the cart against the live catalog, creates a pending
// order priced from catalog data, and opens a hosted payment session for
// it. Client-supplied prices are never trusted.
func (s *service) Start(ctx context.Context, input StartInput) (*StartResult, error) {
	if input.OwnerKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner key is required")
	}
	email, err := resolveCustomerEmail(input)
	if err != nil {
		return nil, err
	}

	record, err := s.cart.Get(ctx, input.OwnerKey)
	if err != nil {
		return nil, err
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	lineItems, totalCents, err := s.repriceItems(ctx, record.Items)
	if err != nil {
		return nil, err
	}

	// Tax is not computed today, so the subtotal and total are the same
	// figure.
	order := &models.Order{
		OwnerAccountID: input.AccountID,
		CustomerEmail:  email,
		Currency:       enums.CurrencyUSD,
		SubtotalCents:  totalCents,
		TaxCents:       0,
		TotalCents:     totalCents,
		Status:         enums.OrderPending,
		LineItems:      lineItems,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err = s.ordersRepo.WithTx(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	sess, err := s.stripe.CreateSession(ctx, s.sessionParams(order, email, input.AccountID))
	if err != nil {
		// The pending order stays behind on purpose so a later session
		// attempt or the stale-order sweep can deal with it.
		if s.logg != nil {
			logCtx := s.logg.WithOrderID(ctx, order.ID.String())
			s.logg.Error(logCtx, "creating payment session failed; pending order left behind", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentProvider, err, "creating payment session")
	}

	if err := s.ordersRepo.SetPaymentSession(ctx, order.ID, sess.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording payment session")
	}

	if err := s.cart.Clear(ctx, input.OwnerKey); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "clearing cart after checkout", err)
	}

	return &StartResult{OrderID: order.ID, RedirectURL: sess.URL}, nil
}

// repriceItems resolves every cart line against the live catalog. Any line
// that no longer resolves to a purchasable means the cart is stale and the
// whole checkout is rejected.
func (s *service) repriceItems(ctx context.Context, items []models.CartItem) ([]models.OrderLineItem, int, error) {
	var packIDs, sampleIDs []uuid.UUID
	for _, item := range items {
		switch item.PurchasableKind {
		case enums.PurchasablePack:
			packIDs = append(packIDs, item.PurchasableID)
		case enums.PurchasableSample:
			sampleIDs = append(sampleIDs, item.PurchasableID)
		default:
			return nil, 0, pkgerrors.New(pkgerrors.CodeStaleCart, "cart contains an unknown purchasable")
		}
	}

	packs, err := s.catalog.LoadPurchasablePacks(ctx, packIDs)
	if err != nil {
		return nil, 0, err
	}
	samples, err := s.catalog.LoadPurchasableSamples(ctx, sampleIDs)
	if err != nil {
		return nil, 0, err
	}

	lineItems := make([]models.OrderLineItem, 0, len(items))
	total := 0
	for _, item := range items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		switch item.PurchasableKind {
		case enums.PurchasablePack:
			pack, ok := packs[item.PurchasableID]
			if !ok {
				return nil, 0, pkgerrors.New(pkgerrors.CodeStaleCart, "a pack in the cart is no longer available")
			}
			lineItems = append(lineItems, models.OrderLineItem{
				PurchasableID:   pack.ID,
				PurchasableKind: enums.PurchasablePack,
				Title:           pack.Title,
				UnitPriceCents:  pack.PriceCents,
				Quantity:        quantity,
			})
			total += pack.PriceCents * quantity
		case enums.PurchasableSample:
			sample, ok := samples[item.PurchasableID]
			if !ok || sample.PriceCents == nil {
				return nil, 0, pkgerrors.New(pkgerrors.CodeStaleCart, "a sample in the cart is no longer available")
			}
			lineItems = append(lineItems, models.OrderLineItem{
				PurchasableID:   sample.ID,
				PurchasableKind: enums.PurchasableSample,
				Title:           sample.Title,
				UnitPriceCents:  *sample.PriceCents,
				Quantity:        quantity,
			})
			total += *sample.PriceCents * quantity
		}
	}
	return lineItems, total, nil
}

func (s *service) sessionParams(order *models.Order, email string, accountID *uuid.UUID) *stripe.CheckoutSessionParams {
	ownerRef := ""
	if accountID != nil && *accountID != uuid.Nil {
		ownerRef = accountID.String()
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(email),
		SuccessURL: stripe.String(fmt.Sprintf(
			"%s/checkout/success?order_id=%s&session_id={CHECKOUT_SESSION_ID}",
			s.frontendURL, order.ID,
		)),
		CancelURL: stripe.String(s.frontendURL + "/cart"),
	}
	params.AddMetadata(MetadataOrderID, order.ID.String())
	params.AddMetadata(MetadataOwnerAccountID, ownerRef)

	for _, item := range order.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(string(order.Currency))),
				UnitAmount: stripe.Int64(int64(item.UnitPriceCents)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Title),
				},
			},
		})
	}
	return params
}

func resolveCustomerEmail(input StartInput) (string, error) {
	if input.AccountID != nil && *input.AccountID != uuid.Nil {
		email := strings.ToLower(strings.TrimSpace(input.AccountEmail))
		if email == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "account email is required")
		}
		return email, nil
	}
	email := strings.ToLower(strings.TrimSpace(input.GuestEmail))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "guest checkout requires an email address")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	return email, nil
}
