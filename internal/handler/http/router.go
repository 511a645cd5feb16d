package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hienohelma/storefront/internal/service"
	"github.com/hienohelma/storefront/pkg/health"
	"github.com/hienohelma/storefront/pkg/middleware"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	ServiceName string
	Cart        *service.CartService
	Pricing     *service.PricingService
	Checkout    *service.CheckoutService
	Orders      *service.OrderService
	Health      *health.Handler
	Tokens      *middleware.TokenParser
	// RateLimiter throttles cart writes per client IP. Nil disables it.
	RateLimiter *middleware.RateLimiter
	CORS        middleware.CORSConfig
	// ShippingMaxAge is the public cache lifetime of shipment methods, in seconds.
	ShippingMaxAge int
	// WebhookKey guards the /internal routes. Empty leaves them unmounted.
	WebhookKey string
	Logger     *slog.Logger
}

// campaignsMaxAge is the public cache lifetime of the campaign list, in seconds.
const campaignsMaxAge = 60

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(cfg.Cart, logger)
	pricingHandler := NewPricingHandler(cfg.Pricing, logger)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, logger)
	orderHandler := NewOrderHandler(cfg.Orders, logger)
	campaignHandler := NewCampaignHandler(cfg.Pricing, logger)

	optionalCustomer := middleware.OptionalCustomer(cfg.Tokens, logger)
	requireCustomer := middleware.RequireCustomer(cfg.Tokens, logger)
	// Re-derive the request logger once auth has added the customer id.
	withCustomerLogger := middleware.RequestLogger(logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/pricing/calculate", pricingHandler.Calculate)
		r.Get("/price", pricingHandler.Price)
		r.With(middleware.CacheControl(campaignsMaxAge)).Get("/campaigns", campaignHandler.List)

		r.Route("/cart", func(r chi.Router) {
			r.Use(RequireCartID)
			r.Use(middleware.NoStore())

			r.Get("/", cartHandler.GetCart)

			r.Group(func(r chi.Router) {
				if cfg.RateLimiter != nil {
					r.Use(cfg.RateLimiter.Handler)
				}
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Post("/items/{key}/increment", cartHandler.IncrementItem)
				r.Post("/items/{key}/decrement", cartHandler.DecrementItem)
				r.Delete("/items/{key}", cartHandler.RemoveItem)
				r.Post("/sync", cartHandler.Sync)
			})
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(optionalCustomer, withCustomerLogger)
			r.Use(middleware.NoStore())

			r.With(RequireCartID).Post("/", checkoutHandler.Initiate)
			r.With(RequireCartID).Get("/", checkoutHandler.ListForCart)
			r.Get("/{id}", checkoutHandler.GetSession)
		})

		r.Route("/customer", func(r chi.Router) {
			r.Use(requireCustomer, withCustomerLogger)
			r.Use(middleware.NoStore())

			r.Get("/orders", orderHandler.ListOrders)
		})

		r.With(middleware.CacheControl(cfg.ShippingMaxAge)).Get("/shipping/methods", orderHandler.ShipmentMethods)
	})

	if cfg.WebhookKey != "" {
		r.Route("/internal", func(r chi.Router) {
			r.Use(RequireAPIKey(cfg.WebhookKey))
			r.Post("/store-config/refresh", campaignHandler.Refresh)
		})
	}

	return r
}
