package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sooqly/sooqly-backend/internal/consumers/orderevents"
	"github.com/sooqly/sooqly-backend/internal/ledger"
	"github.com/sooqly/sooqly-backend/internal/marketer"
	"github.com/sooqly/sooqly-backend/internal/notifications"
	"github.com/sooqly/sooqly-backend/internal/payments"
	"github.com/sooqly/sooqly-backend/internal/settlement"
	"github.com/sooqly/sooqly-backend/pkg/config"
	"github.com/sooqly/sooqly-backend/pkg/db"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/metrics"
	"github.com/sooqly/sooqly-backend/pkg/migrate"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
	"github.com/sooqly/sooqly-backend/pkg/outbox/idempotency"
	"github.com/sooqly/sooqly-backend/pkg/pubsub"
	"github.com/sooqly/sooqly-backend/pkg/redis"
	"github.com/sooqly/sooqly-backend/pkg/santimpay"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
		}
	}()

	gateway, err := santimpay.NewClient(context.Background(), cfg.SantimPay, logg)
	requireResource(ctx, logg, "santimpay client", err)

	subscription := pubsubClient.OrdersSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "orders subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	gormDB := dbClient.DB()
	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	paymentsRepo := payments.NewRepository(gormDB)

	marketerService, err := marketer.NewService(marketer.NewRepository(gormDB), logg)
	requireResource(ctx, logg, "marketer service", err)

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB), logg)
	requireResource(ctx, logg, "notifications service", err)

	settlementService, err := settlement.NewService(
		settlement.NewRepository(gormDB),
		ledger.NewRepository(gormDB),
		paymentsRepo,
		dbClient,
		outboxService,
		gateway,
		cfg.Settlement,
		workflowMetrics,
		logg,
	)
	requireResource(ctx, logg, "settlement service", err)

	consumer, err := orderevents.NewConsumer(orderevents.ConsumerParams{
		Subscription: subscription,
		Idempotency:  manager,
		Runner:       dbClient,
		Marketer:     marketerService,
		Settlement:   settlementService,
		Payments:     paymentsRepo,
		Notifier:     notificationsService,
		Logger:       logg,
	})
	requireResource(ctx, logg, "order events consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "order events worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "order events worker failed", err)
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
