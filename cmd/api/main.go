package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nivedithavs/trendora-backend/api/routes"
	"github.com/nivedithavs/trendora-backend/internal/cart"
	"github.com/nivedithavs/trendora-backend/internal/catalog"
	"github.com/nivedithavs/trendora-backend/internal/checkout"
	"github.com/nivedithavs/trendora-backend/internal/inventory"
	"github.com/nivedithavs/trendora-backend/internal/orders"
	"github.com/nivedithavs/trendora-backend/pkg/config"
	"github.com/nivedithavs/trendora-backend/pkg/db"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	"github.com/nivedithavs/trendora-backend/pkg/metrics"
	"github.com/nivedithavs/trendora-backend/pkg/migrate"
	"github.com/nivedithavs/trendora-backend/pkg/outbox"
	"github.com/nivedithavs/trendora-backend/pkg/razorpay"
	"github.com/nivedithavs/trendora-backend/pkg/redis"
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

	gateway, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap razorpay client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	gdb := dbClient.DB()
	eventService := outbox.NewService(outbox.NewRepository(gdb), logg)
	ledger := inventory.NewLedger(gdb)
	catalogRepo := catalog.NewRepository(gdb)
	checkoutRepo := checkout.NewRepository(gdb)
	stateMachine := checkout.NewStateMachine(gdb)
	ordersRepo := orders.NewRepository(gdb)

	cartService, err := cart.NewService(cart.NewRepository(gdb), dbClient, catalogRepo, ledger, eventService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkoutRepo, stateMachine, dbClient, cartService, catalogRepo, gateway, eventService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	finalizer, err := orders.NewFinalizer(dbClient, checkoutRepo, stateMachine, ledger, ordersRepo, cartService, eventService, checkoutMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order finalizer", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, cfg.Checkout.ReturnWindowDays, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
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
		Handler: routes.NewRouter(cfg, logg, registry, redisClient, redisClient,
			cartService, checkoutService, finalizer, ordersService),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}
