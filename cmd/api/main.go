package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sooqly/sooqly-backend/api/routes"
	"github.com/sooqly/sooqly-backend/internal/cart"
	"github.com/sooqly/sooqly-backend/internal/inventory"
	"github.com/sooqly/sooqly-backend/internal/ledger"
	"github.com/sooqly/sooqly-backend/internal/marketer"
	"github.com/sooqly/sooqly-backend/internal/notifications"
	"github.com/sooqly/sooqly-backend/internal/orders"
	"github.com/sooqly/sooqly-backend/internal/payments"
	"github.com/sooqly/sooqly-backend/internal/settlement"
	"github.com/sooqly/sooqly-backend/internal/shipping"
	santimpaywebhook "github.com/sooqly/sooqly-backend/internal/webhooks/santimpay"
	"github.com/sooqly/sooqly-backend/pkg/config"
	"github.com/sooqly/sooqly-backend/pkg/db"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/metrics"
	"github.com/sooqly/sooqly-backend/pkg/migrate"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
	"github.com/sooqly/sooqly-backend/pkg/redis"
	"github.com/sooqly/sooqly-backend/pkg/santimpay"
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

	gateway, err := santimpay.NewClient(context.Background(), cfg.SantimPay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap santimpay client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	inventoryService, err := inventory.NewService(inventory.NewRepository(gormDB), logg)
	fatalOnErr(logg, "inventory service", err)

	marketerService, err := marketer.NewService(marketer.NewRepository(gormDB), logg)
	fatalOnErr(logg, "marketer service", err)

	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(dbClient, cartRepo, logg)
	fatalOnErr(logg, "cart service", err)

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB), logg)
	fatalOnErr(logg, "notifications service", err)

	ordersRepo := orders.NewRepository(gormDB)
	ordersService, err := orders.NewService(
		ordersRepo,
		dbClient,
		outboxService,
		inventoryService,
		cartRepo,
		marketerService,
		notificationsService,
		logg,
	)
	fatalOnErr(logg, "orders service", err)

	paymentsRepo := payments.NewRepository(gormDB)
	paymentsService, err := payments.NewService(
		paymentsRepo,
		ordersRepo,
		dbClient,
		outboxService,
		gateway,
		inventoryService,
		cfg.SantimPay,
		logg,
	)
	fatalOnErr(logg, "payments service", err)

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
	fatalOnErr(logg, "settlement service", err)

	shippingService, err := shipping.NewService(
		shipping.NewRepository(gormDB),
		ordersRepo,
		dbClient,
		outboxService,
		shipping.NewCourierAdapter(cfg.Courier.RequestTimeout),
		logg,
	)
	fatalOnErr(logg, "shipping service", err)

	webhookService, err := santimpaywebhook.NewService(santimpaywebhook.ServiceParams{
		Payments: paymentsService,
		Shipping: shippingService,
		Logs:     santimpaywebhook.NewLogRepository(gormDB),
		Metrics:  workflowMetrics,
		Logger:   logg,
	})
	fatalOnErr(logg, "santimpay webhook service", err)

	webhookGuard, err := santimpaywebhook.NewIdempotencyGuard(redisClient, 24*time.Hour, "santimpay")
	fatalOnErr(logg, "santimpay webhook guard", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			dbClient,
			redisClient,
			cartService,
			ordersService,
			paymentsService,
			settlementService,
			shippingService,
			notificationsService,
			inventoryService,
			webhookService,
			webhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatalOnErr(logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}
