package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/jkiprotich/mifugo-market-backend/internal/consumers"
	"github.com/jkiprotich/mifugo-market-backend/internal/notifications"
	"github.com/jkiprotich/mifugo-market-backend/pkg/config"
	"github.com/jkiprotich/mifugo-market-backend/pkg/db"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/migrate"
	"github.com/jkiprotich/mifugo-market-backend/pkg/outbox/idempotency"
	"github.com/jkiprotich/mifugo-market-backend/pkg/outbox/registry"
	"github.com/jkiprotich/mifugo-market-backend/pkg/pubsub"
	"github.com/jkiprotich/mifugo-market-backend/pkg/redis"
	"github.com/jkiprotich/mifugo-market-backend/pkg/sms"
)

// Processed-event markers outlive the subscription's redelivery horizon.
const processedEventTTL = 7 * 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		logg.Error(context.Background(), "failed to build event registry", err)
		os.Exit(1)
	}

	guard, err := idempotency.NewManager(redisClient, processedEventTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build idempotency guard", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	// SMS stays optional; without credentials alerts are skipped, not faked.
	var smsClient *sms.Client
	if cfg.SMS.APIKey != "" {
		smsClient, err = sms.NewClient(
			cfg.SMS.APIKey,
			cfg.SMS.Username,
			sms.WithBaseURL(cfg.SMS.BaseURL),
			sms.WithSenderID(cfg.SMS.SenderID),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create sms client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "sms credentials missing, alerts disabled")
	}

	consumer, err := buildOrdersConsumer(pubsubClient, eventRegistry, notificationService, smsClient, guard, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting orders worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "orders worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "orders worker shutting down gracefully")
}

func buildOrdersConsumer(
	pubsubClient *pubsub.Client,
	eventRegistry *registry.EventRegistry,
	notificationService notifications.Service,
	smsClient *sms.Client,
	guard *idempotency.Manager,
	logg *logger.Logger,
) (*consumers.OrdersConsumer, error) {
	if smsClient == nil {
		return consumers.NewOrdersConsumer(pubsubClient.OrdersSubscription(), eventRegistry, notificationService, nil, guard, logg)
	}
	return consumers.NewOrdersConsumer(pubsubClient.OrdersSubscription(), eventRegistry, notificationService, smsClient, guard, logg)
}
