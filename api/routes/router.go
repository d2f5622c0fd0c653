package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sampleforge/sampleforge-backend/api/controllers"
	webhookcontrollers "github.com/sampleforge/sampleforge-backend/api/controllers/webhooks"
	"github.com/sampleforge/sampleforge-backend/api/middleware"
	"github.com/sampleforge/sampleforge-backend/internal/cart"
	"github.com/sampleforge/sampleforge-backend/internal/catalog"
	checkoutsvc "github.com/sampleforge/sampleforge-backend/internal/checkout"
	"github.com/sampleforge/sampleforge-backend/internal/grants"
	"github.com/sampleforge/sampleforge-backend/internal/orders"
	stripewebhook "github.com/sampleforge/sampleforge-backend/internal/webhooks/stripe"
	"github.com/sampleforge/sampleforge-backend/pkg/config"
	"github.com/sampleforge/sampleforge-backend/pkg/db"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
	"github.com/sampleforge/sampleforge-backend/pkg/redis"
	"github.com/sampleforge/sampleforge-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	grantsService grants.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	// The token itself is the capability; no auth on the download gateway.
	r.Get("/download/{token}", controllers.Download(grantsService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/packs", controllers.CatalogList(catalogService, logg))
			r.Get("/packs/{packRef}", controllers.CatalogDetail(catalogService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(logg))
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Put("/items", controllers.CartReplace(cartService, logg))
				r.Delete("/items/{lineItemId}", controllers.CartRemoveItem(cartService, logg))
			})
			r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		})

		// Status polling for the success redirect; the order uuid is the
		// capability.
		r.Get("/orders/{orderId}", controllers.OrderStatus(ordersService, logg))

		r.Route("/me", func(r chi.Router) {
			r.Use(middleware.RequireAuth(logg))
			r.Get("/orders", controllers.MyOrders(ordersService, logg))
			r.Get("/orders/{orderId}", controllers.MyOrderDetail(ordersService, grantsService, logg))
			r.Post("/orders/claim", controllers.ClaimOrders(ordersService, logg))
		})
	})

	return r
}
