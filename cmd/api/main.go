package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voltline/voltline-backend/api/controllers"
	"github.com/voltline/voltline-backend/api/routes"
	"github.com/voltline/voltline-backend/internal/analytics"
	"github.com/voltline/voltline-backend/internal/auth"
	"github.com/voltline/voltline-backend/internal/cart"
	checkoutsvc "github.com/voltline/voltline-backend/internal/checkout"
	"github.com/voltline/voltline-backend/internal/notifications"
	"github.com/voltline/voltline-backend/internal/orders"
	products "github.com/voltline/voltline-backend/internal/products"
	"github.com/voltline/voltline-backend/internal/quotes"
	"github.com/voltline/voltline-backend/internal/suppliers"
	"github.com/voltline/voltline-backend/internal/users"
	stripewebhook "github.com/voltline/voltline-backend/internal/webhooks/stripe"
	"github.com/voltline/voltline-backend/pkg/auth/session"
	"github.com/voltline/voltline-backend/pkg/bigquery"
	"github.com/voltline/voltline-backend/pkg/config"
	"github.com/voltline/voltline-backend/pkg/db"
	"github.com/voltline/voltline-backend/pkg/googleauth"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/migrate"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/redis"
	"github.com/voltline/voltline-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	var googleClient googleauth.Exchanger
	if cfg.GoogleOAuth.ClientID != "" {
		client, err := googleauth.NewClient(ctx, cfg.GoogleOAuth, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap google oauth", err)
			os.Exit(1)
		}
		googleClient = client
	} else {
		logg.Warn(ctx, "google oauth not configured, social sign-in disabled")
	}

	bigqueryClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bigqueryClient.Close(); err != nil {
			logg.Error(ctx, "error closing bigquery", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		SessionManager: sessionManager,
		GoogleClient:   googleClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	productRepo := products.NewRepository(gormDB)
	supplierRepo := suppliers.NewRepository(gormDB)
	productService, err := products.NewService(productRepo, dbClient, supplierRepo)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	supplierService, err := suppliers.NewService(supplierRepo)
	if err != nil {
		logg.Error(ctx, "failed to create supplier service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(cartRepo, dbClient, productRepo)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	quoteService, err := quotes.NewService(quotes.NewRepository(gormDB), dbClient, cartRepo, outboxService)
	if err != nil {
		logg.Error(ctx, "failed to create quote service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(gormDB)
	orderService, err := orders.NewService(logg, ordersRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		dbClient,
		cartRepo,
		ordersRepo,
		productRepo,
		nil,
		checkoutsvc.NewStripeClient(stripeClient),
		outboxService,
	)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(bigqueryClient, cfg.GCP.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.StorefrontEventsTable)
	if err != nil {
		logg.Error(ctx, "failed to create analytics service", err)
		os.Exit(1)
	}

	ingestService, err := analytics.NewIngestService(dbClient, outboxService)
	if err != nil {
		logg.Error(ctx, "failed to create ingest service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(ctx, "failed to create notification service", err)
		os.Exit(1)
	}

	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{Orders: orderService})
	if err != nil {
		logg.Error(ctx, "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	stripeWebhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.OutboxIdempotencyTTL, "stripe-webhook")
	if err != nil {
		logg.Error(ctx, "failed to create stripe webhook guard", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Params{
		Config:         cfg,
		Logger:         logg,
		ReadyChecks: map[string]controllers.Pinger{
			"db":       dbClient,
			"redis":    redisClient,
			"bigquery": bigqueryClient,
		},
		Redis:          redisClient,
		SessionManager: sessionManager,

		AuthService:          authService,
		ProductService:       productService,
		ProductRepo:          productRepo,
		CartService:          cartService,
		QuoteService:         quoteService,
		CheckoutService:      checkoutService,
		OrderService:         orderService,
		SupplierService:      supplierService,
		AnalyticsService:     analyticsService,
		IngestService:        ingestService,
		NotificationService:  notificationService,
		StripeClient:         stripeClient,
		StripeWebhookService: stripeWebhookService,
		StripeWebhookGuard:   stripeWebhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
