package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nivedithavs/trendora-backend/api/controllers"
	"github.com/nivedithavs/trendora-backend/api/middleware"
	cartsvc "github.com/nivedithavs/trendora-backend/internal/cart"
	checkoutsvc "github.com/nivedithavs/trendora-backend/internal/checkout"
	ordersvc "github.com/nivedithavs/trendora-backend/internal/orders"
	"github.com/nivedithavs/trendora-backend/pkg/config"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	pkgredis "github.com/nivedithavs/trendora-backend/pkg/redis"
)

// Finalizer is the slice of the order finalizer the routes need.
type Finalizer interface {
	Finalize(ctx context.Context, checkoutID, userID uuid.UUID) (*models.Order, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	redisPinger pkgredis.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	finalizer Finalizer,
	ordersService ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, redisPinger, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.GuestToken())
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Put("/items", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(cartService, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Post("/merge", controllers.CartMerge(cartService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, cfg.Checkout.IdempotencyTTL, logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", controllers.CheckoutCreate(checkoutService, logg))
				r.Get("/{checkoutID}", controllers.CheckoutGet(checkoutService, logg))
				r.Put("/{checkoutID}/pay", controllers.CheckoutMarkPaid(checkoutService, logg))
				r.Post("/{checkoutID}/gateway-order", controllers.CheckoutGatewayOrder(checkoutService, logg))
				r.Post("/{checkoutID}/verify", controllers.CheckoutVerify(checkoutService, logg))
				r.Post("/{checkoutID}/finalize", controllers.CheckoutFinalize(finalizer, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersListMine(ordersService, logg))
				r.Get("/{orderID}", controllers.OrderGet(ordersService, logg))
				r.Post("/{orderID}/return", controllers.OrderRequestReturn(ordersService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersList(ordersService, logg))
				r.Get("/returns", controllers.AdminOrderReturnsList(ordersService, logg))
				r.Put("/{orderID}/status", controllers.AdminOrderUpdateStatus(ordersService, logg))
				r.Put("/{orderID}/items/{productID}/return", controllers.AdminOrderDecideReturn(ordersService, logg))
			})
		})
	})

	return r
}
