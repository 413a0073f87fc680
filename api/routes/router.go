package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voltline/voltline-backend/api/controllers"
	webhookcontrollers "github.com/voltline/voltline-backend/api/controllers/webhooks"
	"github.com/voltline/voltline-backend/api/middleware"
	"github.com/voltline/voltline-backend/internal/analytics"
	"github.com/voltline/voltline-backend/internal/auth"
	"github.com/voltline/voltline-backend/internal/cart"
	checkoutsvc "github.com/voltline/voltline-backend/internal/checkout"
	"github.com/voltline/voltline-backend/internal/notifications"
	"github.com/voltline/voltline-backend/internal/orders"
	products "github.com/voltline/voltline-backend/internal/products"
	"github.com/voltline/voltline-backend/internal/quotes"
	"github.com/voltline/voltline-backend/internal/suppliers"
	stripewebhook "github.com/voltline/voltline-backend/internal/webhooks/stripe"
	"github.com/voltline/voltline-backend/pkg/auth/session"
	"github.com/voltline/voltline-backend/pkg/config"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/redis"
	"github.com/voltline/voltline-backend/pkg/stripe"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Params bundles everything the router wires into handlers.
type Params struct {
	Config         *config.Config
	Logger         *logger.Logger
	ReadyChecks    map[string]controllers.Pinger
	Redis          *redis.Client
	SessionManager sessionManager

	AuthService          auth.Service
	ProductService       products.Service
	ProductRepo          *products.Repository
	CartService          cart.Service
	QuoteService         quotes.Service
	CheckoutService      checkoutsvc.Service
	OrderService         orders.Service
	SupplierService      suppliers.Service
	AnalyticsService     analytics.Service
	IngestService        analytics.IngestService
	NotificationService  notifications.Service
	StripeClient         *stripe.Client
	StripeWebhookService *stripewebhook.Service
	StripeWebhookGuard   *stripewebhook.IdempotencyGuard
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.ReadyChecks))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhookService, p.StripeClient, p.StripeWebhookGuard, logg))
	})

	secureCookies := cfg.App.IsProd()

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.AuthService, cfg.JWT, logg))
		r.Get("/google", controllers.AuthGoogleStart(p.AuthService, secureCookies, logg))
		r.Get("/google/callback", controllers.AuthGoogleCallback(p.AuthService, secureCookies, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(p.ProductService, logg))
		r.Get("/{productId}", controllers.GetProduct(p.ProductService, logg))
		r.Post("/{productId}/engraving-preview", controllers.EngravingPreview(p.ProductRepo, p.IngestService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(p.CartService, logg))
			r.Put("/", controllers.ReplaceCart(p.CartService, logg))
			r.Delete("/", controllers.ClearCart(p.CartService, logg))
			r.Post("/items", controllers.AddCartItem(p.CartService, logg))
			r.Patch("/items/{itemId}", controllers.UpdateCartItem(p.CartService, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(p.CartService, logg))
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Post("/", controllers.RequestQuotes(p.QuoteService, logg))
			r.Get("/", controllers.ListQuotes(p.QuoteService, logg))
			r.Get("/{quoteId}", controllers.GetQuote(p.QuoteService, logg))
			r.Post("/{quoteId}/accept", controllers.AcceptQuote(p.QuoteService, logg))
		})

		r.Post("/checkout", controllers.Checkout(p.CheckoutService, cfg.Stripe, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.OrderService, logg))
			r.Get("/{orderId}", controllers.GetOrder(p.OrderService, logg))
		})

		r.Post("/events", controllers.IngestEvent(p.IngestService, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.NotificationService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.NotificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.NotificationService, logg))
		})

		r.Route("/supplier", func(r chi.Router) {
			r.Use(middleware.RequireRole("supplier_admin", logg))
			r.Use(middleware.SupplierContext(logg))

			r.Get("/profile", controllers.GetSupplierProfile(p.SupplierService, logg))
			r.Patch("/profile", controllers.UpdateSupplierProfile(p.SupplierService, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListSupplierProducts(p.ProductService, logg))
				r.Post("/", controllers.CreateSupplierProduct(p.ProductService, logg))
				r.Patch("/{productId}", controllers.UpdateSupplierProduct(p.ProductService, logg))
				r.Delete("/{productId}", controllers.DeleteSupplierProduct(p.ProductService, logg))
			})

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", controllers.ListSupplierQuotes(p.QuoteService, logg))
				r.Post("/{quoteId}/issue", controllers.IssueQuote(p.QuoteService, logg))
				r.Post("/{quoteId}/decline", controllers.DeclineQuote(p.QuoteService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListSupplierOrders(p.OrderService, logg))
				r.Post("/{orderId}/fulfill", controllers.FulfillOrder(p.OrderService, logg))
			})

			r.Get("/analytics", controllers.SupplierAnalytics(p.AnalyticsService, logg))
		})
	})

	return r
}
