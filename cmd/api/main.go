package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/palletspaces/backend/api/routes"
	"github.com/palletspaces/backend/internal/listings"
	"github.com/palletspaces/backend/internal/orders"
	"github.com/palletspaces/backend/internal/sellers"
	paymentwebhook "github.com/palletspaces/backend/internal/webhooks/payment"
	"github.com/palletspaces/backend/pkg/config"
	"github.com/palletspaces/backend/pkg/db"
	"github.com/palletspaces/backend/pkg/instance"
	"github.com/palletspaces/backend/pkg/logger"
	"github.com/palletspaces/backend/pkg/metrics"
	"github.com/palletspaces/backend/pkg/migrate"
	"github.com/palletspaces/backend/pkg/payment"
	"github.com/palletspaces/backend/pkg/redis"
)

func main() {
	ctx := context.Background()

	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, "no .env file loaded; relying on process environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "migrations", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	var gateway payment.Gateway
	if cfg.Payment.Enabled && cfg.Payment.APIKey != "" {
		stripeGateway, err := payment.NewStripeGateway(ctx, cfg.Payment, logg)
		requireResource(ctx, logg, "payment gateway", err)
		gateway = stripeGateway
	} else {
		logg.Warn(ctx, "payment gateway disabled; checkout sessions will degrade to pending")
		gateway = payment.NewStubGateway()
	}

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())
	sellersRepo := sellers.NewRepository(dbClient.DB())
	listingsRepo := listings.NewRepository(dbClient.DB())

	ordersSvc, err := orders.NewService(ordersRepo, dbClient, gateway, cfg.Server.BaseURL, logg, paymentMetrics)
	requireResource(ctx, logg, "orders service", err)

	sellersSvc, err := sellers.NewService(sellersRepo, gateway, cfg.Server.BaseURL, logg)
	requireResource(ctx, logg, "sellers service", err)

	listingsSvc, err := listings.NewService(listingsRepo, sellersSvc)
	requireResource(ctx, logg, "listings service", err)

	webhookSvc, err := paymentwebhook.NewService(paymentwebhook.ServiceParams{
		Orders:  ordersRepo,
		Sellers: sellersRepo,
		Logger:  logg,
		Metrics: paymentMetrics,
	})
	requireResource(ctx, logg, "webhook service", err)

	router := routes.NewRouter(routes.Deps{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Registry:   registry,
		Metrics:    paymentMetrics,
		Orders:     ordersSvc,
		Listings:   listingsSvc,
		Sellers:    sellersSvc,
		WebhookSvc: webhookSvc,
	})

	// Platform-injected PORT wins over configured port.
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	logg.Info(ctx, fmt.Sprintf("api listening on :%s", port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "server stopped", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
