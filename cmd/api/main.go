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

	"github.com/jkiprotich/mifugo-market-backend/api/controllers"
	"github.com/jkiprotich/mifugo-market-backend/api/routes"
	"github.com/jkiprotich/mifugo-market-backend/internal/cart"
	"github.com/jkiprotich/mifugo-market-backend/internal/catalog"
	"github.com/jkiprotich/mifugo-market-backend/internal/checkout"
	"github.com/jkiprotich/mifugo-market-backend/internal/notifications"
	"github.com/jkiprotich/mifugo-market-backend/internal/orders"
	"github.com/jkiprotich/mifugo-market-backend/internal/payments"
	"github.com/jkiprotich/mifugo-market-backend/internal/receipts"
	"github.com/jkiprotich/mifugo-market-backend/pkg/config"
	"github.com/jkiprotich/mifugo-market-backend/pkg/db"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/metrics"
	"github.com/jkiprotich/mifugo-market-backend/pkg/migrate"
	"github.com/jkiprotich/mifugo-market-backend/pkg/outbox"
	"github.com/jkiprotich/mifugo-market-backend/pkg/paystack"
	"github.com/jkiprotich/mifugo-market-backend/pkg/redis"
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

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)
	paymentMetrics := metrics.NewPaymentMetrics(promRegistry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paystackClient, err := paystack.NewClient(
		cfg.Paystack.SecretKey,
		paystack.WithBaseURL(cfg.Paystack.BaseURL),
		paystack.WithTimeout(cfg.Paystack.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}

	hostedGateway, err := payments.NewPaystackGateway(paystackClient, cfg.Paystack.Currency, cfg.Paystack.CallbackURL, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack gateway", err)
		os.Exit(1)
	}

	mobileMoneyGateway, err := payments.NewMockMobileMoney(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mobile money gateway", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(cartRepo, ordersRepo, dbClient, hostedGateway, mobileMoneyGateway, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	receiptsService, err := receipts.NewService(ordersRepo, cfg.Paystack.Currency)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipts service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(
		cfg,
		logg,
		redisClient,
		httpMetrics,
		promRegistry,
		map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		catalogService,
		cartService,
		checkoutService,
		ordersService,
		receiptsService,
		notificationsService,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
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

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}
