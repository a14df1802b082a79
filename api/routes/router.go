package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jkiprotich/mifugo-market-backend/api/controllers"
	"github.com/jkiprotich/mifugo-market-backend/api/middleware"
	"github.com/jkiprotich/mifugo-market-backend/internal/cart"
	catalogsvc "github.com/jkiprotich/mifugo-market-backend/internal/catalog"
	checkoutsvc "github.com/jkiprotich/mifugo-market-backend/internal/checkout"
	"github.com/jkiprotich/mifugo-market-backend/internal/notifications"
	"github.com/jkiprotich/mifugo-market-backend/internal/orders"
	receiptsvc "github.com/jkiprotich/mifugo-market-backend/internal/receipts"
	"github.com/jkiprotich/mifugo-market-backend/pkg/config"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/metrics"
	"github.com/jkiprotich/mifugo-market-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	promRegistry *prometheus.Registry,
	readiness map[string]controllers.Pinger,
	catalogService catalogsvc.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	receiptsService receiptsvc.Service,
	notificationsService notifications.Service,
) http.Handler {
	// Typed-nil *redis.Client must not leak into the middleware interfaces.
	var idempotencyStore redis.IdempotencyStore
	var checkoutLimiter middleware.FixedWindowLimiter
	if redisClient != nil {
		idempotencyStore = redisClient
		checkoutLimiter = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(catalogService, logg))
		r.Get("/{productID}", controllers.GetProduct(catalogService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(notificationsService, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireBuyer(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(cartService, logg))
				r.Delete("/", controllers.ClearCart(cartService, logg))
				r.Post("/items", controllers.AddCartItem(cartService, logg))
				r.Patch("/items/{itemID}", controllers.UpdateCartItem(cartService, logg))
				r.Delete("/items/{itemID}", controllers.RemoveCartItem(cartService, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Use(middleware.RateLimit(checkoutLimiter, "checkout", cfg.RateLimit.CheckoutLimit, cfg.RateLimit.CheckoutWindow, logg))
				r.Post("/mobile-money", controllers.MobileMoneyCheckout(checkoutService, logg))
				r.Post("/paystack/initialize", controllers.InitializeHostedCheckout(checkoutService, logg))
				r.Get("/paystack/verify", controllers.VerifyHostedCheckout(checkoutService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListBuyerOrders(ordersService, logg))
				r.Get("/{orderID}", controllers.GetBuyerOrder(ordersService, logg))
				r.Get("/{orderID}/receipt", controllers.BuyerOrderReceipt(receiptsService, logg))
				r.Post("/{orderID}/cancel", controllers.CancelOrder(ordersService, logg))
				r.Post("/{orderID}/pay-again", controllers.PayAgain(checkoutService, logg))
			})
		})

		r.Route("/vendor/orders", func(r chi.Router) {
			r.Use(middleware.RequireSupplier(logg))
			r.Get("/", controllers.ListVendorOrders(ordersService, logg))
			r.Get("/{orderID}", controllers.GetVendorOrder(ordersService, logg))
			r.Get("/{orderID}/receipt", controllers.VendorOrderReceipt(receiptsService, logg))
			r.Patch("/{orderID}/status", controllers.UpdateVendorOrderStatus(ordersService, logg))
		})
	})

	return r
}
