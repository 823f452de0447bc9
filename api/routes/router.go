package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sooqly/sooqly-backend/api/controllers"
	webhookcontrollers "github.com/sooqly/sooqly-backend/api/controllers/webhooks"
	"github.com/sooqly/sooqly-backend/api/middleware"
	"github.com/sooqly/sooqly-backend/internal/cart"
	"github.com/sooqly/sooqly-backend/internal/inventory"
	"github.com/sooqly/sooqly-backend/internal/notifications"
	"github.com/sooqly/sooqly-backend/internal/orders"
	"github.com/sooqly/sooqly-backend/internal/payments"
	"github.com/sooqly/sooqly-backend/internal/settlement"
	"github.com/sooqly/sooqly-backend/internal/shipping"
	santimpaywebhook "github.com/sooqly/sooqly-backend/internal/webhooks/santimpay"
	"github.com/sooqly/sooqly-backend/pkg/config"
	"github.com/sooqly/sooqly-backend/pkg/db"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	txRunner db.TxRunner,
	redisClient *redis.Client,
	cartService cart.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
	settlementService settlement.Service,
	shippingService shipping.Service,
	notificationsService notifications.Service,
	inventoryService inventory.Service,
	santimpayWebhookService *santimpaywebhook.Service,
	santimpayWebhookGuard *santimpaywebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/santimpay", webhookcontrollers.SantimPayWebhook(santimpayWebhookService, santimpayWebhookGuard, logg))
		r.Post("/courier/{providerCode}", webhookcontrollers.CourierWebhook(shippingService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Get("/{shopId}", controllers.CartFetch(cartService, logg))
			r.Delete("/{shopId}/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Post("/", controllers.OrderCreate(ordersService, logg))
			r.Post("/checkout", controllers.OrderCheckout(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(ordersService, logg))
			r.Post("/{orderId}/payment-sync", controllers.PaymentSync(paymentsService, logg))
			r.Get("/{orderId}/shipment", controllers.ShipmentByOrder(shippingService, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/initiate", controllers.PaymentInitiate(paymentsService, logg))
			r.Post("/direct", controllers.PaymentDirect(paymentsService, logg))
			r.Get("/{paymentId}/refunds", controllers.RefundList(paymentsService, logg))
		})

		r.Post("/refunds", controllers.RefundRequest(paymentsService, logg))

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.PayoutHistory(settlementService, logg))
			r.Post("/", controllers.PayoutRequest(settlementService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))

		r.Route("/refunds/{refundId}", func(r chi.Router) {
			r.Post("/approve", controllers.RefundApprove(paymentsService, logg))
			r.Post("/reject", controllers.RefundReject(paymentsService, logg))
			r.Post("/execute", controllers.RefundExecute(paymentsService, logg))
		})

		r.Route("/settlements/{paymentId}", func(r chi.Router) {
			r.Get("/", controllers.SettlementDetail(settlementService, logg))
			r.Post("/payout", controllers.SettlementPayoutAll(settlementService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/restock", controllers.InventoryRestock(inventoryService, txRunner, logg))
			r.Post("/adjust", controllers.InventoryAdjust(inventoryService, txRunner, logg))
		})
	})

	return r
}
