package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/internal/orders"
	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
)

type testRunner struct {
	db *gorm.DB
}

func (r testRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fakeAdapter struct {
	booking CourierBooking
	err     error
	calls   int
}

func (a *fakeAdapter) Book(ctx context.Context, partner *models.CourierPartner, order *models.Order) (CourierBooking, error) {
	a.calls++
	if a.err != nil {
		return CourierBooking{}, a.err
	}
	return a.booking, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:shipping_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  shop_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal NUMERIC NOT NULL,
  delivery_fee NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL,
  payment_method TEXT,
  payment_reference TEXT,
  delivery_method TEXT NOT NULL DEFAULT 'courier',
  delivery_address TEXT,
  cancelled_at DATETIME,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  marketer_contract_id TEXT,
  product_name TEXT NOT NULL,
  sku TEXT NOT NULL,
  price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  total NUMERIC NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'ETB',
  status TEXT NOT NULL DEFAULT 'PENDING',
  provider TEXT NOT NULL,
  provider_reference TEXT,
  metadata TEXT,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS courier_partners (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  provider_code TEXT NOT NULL UNIQUE,
  api_base_url TEXT NOT NULL DEFAULT '',
  api_key TEXT NOT NULL DEFAULT '',
  webhook_secret TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  priority INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  courier_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  external_shipment_id TEXT,
  external_tracking_id TEXT,
  last_event TEXT,
  last_payload TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type shippingFixture struct {
	db      *gorm.DB
	svc     Service
	adapter *fakeAdapter
	order   models.Order
	partner models.CourierPartner
}

func newShippingFixture(t *testing.T) *shippingFixture {
	t.Helper()
	db := newTestDB(t)

	partner := models.CourierPartner{
		ID:            uuid.New(),
		Name:          "Deliver Addis",
		ProviderCode:  "deliver-addis",
		WebhookSecret: "topsecret",
		IsActive:      true,
		Priority:      10,
	}
	require.NoError(t, db.Create(&partner).Error)

	order := models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-SHIP-0001",
		UserID:      uuid.New(),
		ShopID:      uuid.New(),
		Status:      enums.OrderStatusPaid,
		Subtotal:    decimal.NewFromInt(900),
		TotalAmount: decimal.NewFromInt(900),
	}
	require.NoError(t, db.Create(&order).Error)

	adapter := &fakeAdapter{booking: CourierBooking{ShipmentID: "DA-555", TrackingID: "TRK-ABC123"}}
	svc, err := NewService(
		NewRepository(db),
		orders.NewRepository(db),
		testRunner{db: db},
		outbox.NewService(outbox.NewRepository(db), nil),
		adapter,
		nil,
	)
	require.NoError(t, err)

	return &shippingFixture{db: db, svc: svc, adapter: adapter, order: order, partner: partner}
}

func TestCreateShipmentForOrder(t *testing.T) {
	f := newShippingFixture(t)
	ctx := context.Background()

	shipment, err := f.svc.CreateShipmentForOrder(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusCreated, shipment.Status)
	assert.Equal(t, f.partner.ID, shipment.CourierID)
	require.NotNil(t, shipment.ExternalTrackingID)
	assert.Equal(t, "TRK-ABC123", *shipment.ExternalTrackingID)
	require.NotNil(t, shipment.ExternalShipmentID)
	assert.Equal(t, "DA-555", *shipment.ExternalShipmentID)

	// Booking again returns the existing shipment without another call.
	again, err := f.svc.CreateShipmentForOrder(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, shipment.ID, again.ID)
	assert.Equal(t, 1, f.adapter.calls)
}

func TestCreateShipmentWithoutActivePartner(t *testing.T) {
	f := newShippingFixture(t)
	require.NoError(t, f.db.Model(&models.CourierPartner{}).
		Where("id = ?", f.partner.ID).
		Update("is_active", false).Error)

	_, err := f.svc.CreateShipmentForOrder(context.Background(), f.order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConfiguration, typed.Code())
}

func TestProcessCourierWebhookAdvancesOrder(t *testing.T) {
	f := newShippingFixture(t)
	ctx := context.Background()

	shipment, err := f.svc.CreateShipmentForOrder(ctx, f.order.ID)
	require.NoError(t, err)

	steps := []struct {
		raw      string
		shipment enums.ShipmentStatus
		order    enums.OrderStatus
	}{
		{"PICKED_UP", enums.ShipmentStatusPickedUp, enums.OrderStatusConfirmed},
		{"IN_TRANSIT", enums.ShipmentStatusInTransit, enums.OrderStatusProcessing},
		{"OUT_FOR_DELIVERY", enums.ShipmentStatusOutForDelivery, enums.OrderStatusShipped},
		{"DELIVERED", enums.ShipmentStatusDelivered, enums.OrderStatusDelivered},
	}
	for _, step := range steps {
		updated, err := f.svc.ProcessCourierWebhook(ctx, CourierWebhookInput{
			ProviderCode: f.partner.ProviderCode,
			Secret:       "topsecret",
			TrackingID:   *shipment.ExternalTrackingID,
			Status:       step.raw,
			Event:        "status." + step.raw,
		})
		require.NoError(t, err)
		assert.Equal(t, step.shipment, updated.Status, step.raw)

		var order models.Order
		require.NoError(t, f.db.First(&order, "id = ?", f.order.ID).Error)
		assert.Equal(t, step.order, order.Status, step.raw)
	}

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", f.order.ID).Error)
	require.NotNil(t, order.DeliveredAt)

	// One shipment event plus one order event per step.
	var count int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 8, count)

	var delivered int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventOrderDelivered).
		Count(&delivered).Error)
	assert.EqualValues(t, 1, delivered)
}

func TestProcessCourierWebhookRedeliveryIsNoOp(t *testing.T) {
	f := newShippingFixture(t)
	ctx := context.Background()

	shipment, err := f.svc.CreateShipmentForOrder(ctx, f.order.ID)
	require.NoError(t, err)

	input := CourierWebhookInput{
		ProviderCode: f.partner.ProviderCode,
		Secret:       "topsecret",
		TrackingID:   *shipment.ExternalTrackingID,
		Status:       "DELIVERED",
		Event:        "status.DELIVERED",
	}
	_, err = f.svc.ProcessCourierWebhook(ctx, input)
	require.NoError(t, err)
	_, err = f.svc.ProcessCourierWebhook(ctx, input)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestProcessCourierWebhookFailureAfterDelivery(t *testing.T) {
	f := newShippingFixture(t)
	ctx := context.Background()

	shipment, err := f.svc.CreateShipmentForOrder(ctx, f.order.ID)
	require.NoError(t, err)

	deliver := CourierWebhookInput{
		ProviderCode: f.partner.ProviderCode,
		Secret:       "topsecret",
		TrackingID:   *shipment.ExternalTrackingID,
		Status:       "DELIVERED",
	}
	_, err = f.svc.ProcessCourierWebhook(ctx, deliver)
	require.NoError(t, err)

	// A late FAILED callback must not cancel a delivered order.
	deliver.Status = "FAILED"
	updated, err := f.svc.ProcessCourierWebhook(ctx, deliver)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusFailed, updated.Status)

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", f.order.ID).Error)
	assert.Equal(t, enums.OrderStatusDelivered, order.Status)
}

func TestProcessCourierWebhookRejectsBadSecret(t *testing.T) {
	f := newShippingFixture(t)
	ctx := context.Background()

	shipment, err := f.svc.CreateShipmentForOrder(ctx, f.order.ID)
	require.NoError(t, err)

	_, err = f.svc.ProcessCourierWebhook(ctx, CourierWebhookInput{
		ProviderCode: f.partner.ProviderCode,
		Secret:       "wrong",
		TrackingID:   *shipment.ExternalTrackingID,
		Status:       "DELIVERED",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestProcessCourierWebhookUnknownTracking(t *testing.T) {
	f := newShippingFixture(t)

	_, err := f.svc.ProcessCourierWebhook(context.Background(), CourierWebhookInput{
		ProviderCode: f.partner.ProviderCode,
		Secret:       "topsecret",
		TrackingID:   "TRK-NOPE",
		Status:       "DELIVERED",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
