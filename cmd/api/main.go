package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/swissvfg/bauprodukt-backend/api/routes"
	"github.com/swissvfg/bauprodukt-backend/internal/cart"
	"github.com/swissvfg/bauprodukt-backend/internal/catalog"
	"github.com/swissvfg/bauprodukt-backend/internal/emailqueue"
	"github.com/swissvfg/bauprodukt-backend/internal/orders"
	"github.com/swissvfg/bauprodukt-backend/internal/payments"
	datatransadapter "github.com/swissvfg/bauprodukt-backend/internal/payments/datatrans"
	stripeadapter "github.com/swissvfg/bauprodukt-backend/internal/payments/stripe"
	"github.com/swissvfg/bauprodukt-backend/internal/reconciler"
	"github.com/swissvfg/bauprodukt-backend/pkg/config"
	"github.com/swissvfg/bauprodukt-backend/pkg/datatrans"
	"github.com/swissvfg/bauprodukt-backend/pkg/db"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
	"github.com/swissvfg/bauprodukt-backend/pkg/migrate"
	"github.com/swissvfg/bauprodukt-backend/pkg/redis"
	"github.com/swissvfg/bauprodukt-backend/pkg/stripe"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cartStore, err := cart.NewStore(redisClient, cfg.Checkout.CartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		catalog.NewRepository(dbClient.DB()),
		cartStore,
		dbClient,
		nil,
		logg,
		cfg.Checkout.OrderNumberAttempts,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}
	stripeAdapter, err := stripeadapter.NewAdapter(stripeClient, logg, stripeadapter.Options{
		SuccessURL:    cfg.App.BaseURL + "/checkout/success",
		CancelURL:     cfg.App.BaseURL + "/checkout/cancel",
		SessionExpiry: cfg.Checkout.SessionExpiry,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe adapter", err)
		os.Exit(1)
	}

	datatransClient, err := datatrans.NewClient(context.Background(), cfg.DataTrans, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create datatrans client", err)
		os.Exit(1)
	}
	datatransAdapter, err := datatransadapter.NewAdapter(datatransClient, logg, datatransadapter.Options{
		SuccessURL: cfg.App.BaseURL + "/checkout/success",
		ErrorURL:   cfg.App.BaseURL + "/checkout/error",
		CancelURL:  cfg.App.BaseURL + "/checkout/cancel",
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create datatrans adapter", err)
		os.Exit(1)
	}

	adapters := []payments.Adapter{stripeAdapter, datatransAdapter}

	paymentsService, err := payments.NewService(
		payments.NewRepository(dbClient.DB()), adapters, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	emailService, err := emailqueue.NewService(
		emailqueue.NewRepository(dbClient.DB()), cfg.Email.FulfillmentAddress)
	if err != nil {
		logg.Error(context.Background(), "failed to create email queue service", err)
		os.Exit(1)
	}

	reconcilerRepo := reconciler.NewRepository(dbClient.DB())
	dispatcher, err := reconciler.NewDispatcher(emailService, reconcilerRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create side-effect dispatcher", err)
		os.Exit(1)
	}
	reconcilerService, err := reconciler.NewService(reconcilerRepo, adapters, dispatcher, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient,
			ordersService, paymentsService, reconcilerService,
			stripeAdapter, datatransAdapter,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
