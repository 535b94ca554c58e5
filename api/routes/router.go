package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/palletspaces/backend/api/controllers"
	ordercontrollers "github.com/palletspaces/backend/api/controllers/orders"
	webhookcontrollers "github.com/palletspaces/backend/api/controllers/webhooks"
	"github.com/palletspaces/backend/api/middleware"
	"github.com/palletspaces/backend/internal/listings"
	"github.com/palletspaces/backend/internal/orders"
	"github.com/palletspaces/backend/internal/sellers"
	paymentwebhook "github.com/palletspaces/backend/internal/webhooks/payment"
	"github.com/palletspaces/backend/pkg/config"
	"github.com/palletspaces/backend/pkg/db"
	"github.com/palletspaces/backend/pkg/logger"
	"github.com/palletspaces/backend/pkg/metrics"
	"github.com/palletspaces/backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         db.Pinger
	Redis      *redis.Client
	Registry   *prometheus.Registry
	Metrics    *metrics.PaymentMetrics
	Orders     orders.Service
	Listings   listings.Service
	Sellers    sellers.Service
	WebhookSvc *paymentwebhook.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	publicPolicy := middleware.NewRateLimitPolicy("public", cfg.RateLimit.PublicWindow, cfg.RateLimit.PublicLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/payment", webhookcontrollers.PaymentWebhook(deps.WebhookSvc, cfg.Payment.WebhookSecret, deps.Metrics, logg))

		// Public discovery surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(publicPolicy, deps.Redis, logg))
			r.Get("/listings", controllers.ListListings(deps.Listings, logg))
			r.Get("/listings/{listingID}", controllers.GetListing(deps.Listings, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", ordercontrollers.Create(deps.Orders, logg))
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/{orderID}", ordercontrollers.Detail(deps.Orders, logg))
				r.Get("/{orderID}/confirm", ordercontrollers.Review(deps.Orders, logg))
				r.Post("/{orderID}/confirm", ordercontrollers.Confirm(deps.Orders, logg))
				r.Post("/{orderID}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			})

			r.Post("/listings", controllers.CreateListing(deps.Listings, logg))
			r.Get("/listings/mine", controllers.ListMyListings(deps.Listings, logg))
			r.Post("/listings/{listingID}/publish", controllers.PublishListing(deps.Listings, logg))

			r.Route("/sellers", func(r chi.Router) {
				r.Post("/verify", controllers.StartSellerVerification(deps.Sellers, logg))
				r.Post("/refresh", controllers.RefreshSellerStatus(deps.Sellers, logg))
			})
		})
	})

	return r
}
