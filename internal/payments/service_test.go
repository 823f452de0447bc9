package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/internal/inventory"
	"github.com/sooqly/sooqly-backend/internal/orders"
	"github.com/sooqly/sooqly-backend/pkg/config"
	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
	"github.com/sooqly/sooqly-backend/pkg/santimpay"
)

type testRunner struct {
	db *gorm.DB
}

func (r testRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fakeGateway struct {
	checkoutURL   string
	checkoutErr   error
	directResult  santimpay.TransactionResult
	directErr     error
	statusResult  santimpay.TransactionResult
	transferErr   error
	transferCalls int
}

func (g *fakeGateway) GeneratePaymentURL(ctx context.Context, req santimpay.CheckoutRequest) (string, error) {
	if g.checkoutErr != nil {
		return "", g.checkoutErr
	}
	return g.checkoutURL, nil
}

func (g *fakeGateway) DirectPayment(ctx context.Context, req santimpay.DirectPaymentRequest) (santimpay.TransactionResult, error) {
	if g.directErr != nil {
		return santimpay.TransactionResult{}, g.directErr
	}
	return g.directResult, nil
}

func (g *fakeGateway) SendToCustomer(ctx context.Context, req santimpay.TransferRequest) (santimpay.TransactionResult, error) {
	g.transferCalls++
	if g.transferErr != nil {
		return santimpay.TransactionResult{}, g.transferErr
	}
	return santimpay.TransactionResult{TransactionID: req.TransactionID, Status: "PROCESSING"}, nil
}

func (g *fakeGateway) CheckTransactionStatus(ctx context.Context, txID string) (santimpay.TransactionResult, error) {
	return g.statusResult, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  merchant_id TEXT,
  bank_account_number TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
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
		`CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  variant_name TEXT NOT NULL,
  price NUMERIC,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS inventories (
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  quantity_available INTEGER NOT NULL DEFAULT 0,
  quantity_reserved INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
  id TEXT PRIMARY KEY,
  inventory_id TEXT NOT NULL,
  type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  reason TEXT NOT NULL,
  order_id TEXT,
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
		`CREATE TABLE IF NOT EXISTS refunds (
  id TEXT PRIMARY KEY,
  payment_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  reason TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'REQUESTED',
  provider_reference TEXT,
  requested_by TEXT NOT NULL,
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

type paymentFixture struct {
	db      *gorm.DB
	svc     Service
	gateway *fakeGateway
	userID  uuid.UUID
	order   models.Order
	variant models.ProductVariant
	pool    models.Inventory
}

// newFixture seeds a pending order of 3 units at 500 ETB with the matching
// reservation already held.
func newFixture(t *testing.T) *paymentFixture {
	t.Helper()
	db := newTestDB(t)

	userID := uuid.New()
	user := models.User{ID: userID, Name: "Abebe", Email: "abebe@example.com", Role: enums.UserRoleCustomer}
	phone := "+251911000000"
	user.Phone = &phone
	require.NoError(t, db.Create(&user).Error)

	variant := models.ProductVariant{ID: uuid.New(), ProductID: uuid.New(), VariantName: "Default"}
	require.NoError(t, db.Create(&variant).Error)

	pool := models.Inventory{
		ID:                uuid.New(),
		VariantID:         variant.ID,
		LocationID:        uuid.New(),
		QuantityAvailable: 7,
		QuantityReserved:  3,
	}
	require.NoError(t, db.Create(&pool).Error)

	order := models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-TEST-0001",
		UserID:      userID,
		ShopID:      uuid.New(),
		Status:      enums.OrderStatusPending,
		Subtotal:    decimal.NewFromInt(1500),
		TotalAmount: decimal.NewFromInt(1500),
	}
	require.NoError(t, db.Create(&order).Error)
	variantID := variant.ID
	item := models.OrderItem{
		ID:          uuid.New(),
		OrderID:     order.ID,
		ProductID:   variant.ProductID,
		VariantID:   &variantID,
		ProductName: "Ceramic Jebena",
		SKU:         "JB-100",
		Price:       decimal.NewFromInt(500),
		Quantity:    3,
		Total:       decimal.NewFromInt(1500),
	}
	require.NoError(t, db.Create(&item).Error)

	stock, err := inventory.NewService(inventory.NewRepository(db), nil)
	require.NoError(t, err)

	gateway := &fakeGateway{checkoutURL: "https://checkout.santimpay.com/pay/abc"}
	svc, err := NewService(
		NewRepository(db),
		orders.NewRepository(db),
		testRunner{db: db},
		outbox.NewService(outbox.NewRepository(db), nil),
		gateway,
		stock,
		config.SantimPayConfig{NotifyURL: "https://api.example.com/webhooks/santimpay"},
		nil,
	)
	require.NoError(t, err)

	return &paymentFixture{db: db, svc: svc, gateway: gateway, userID: userID, order: order, variant: variant, pool: pool}
}

func (f *paymentFixture) seedPayment(t *testing.T, status enums.PaymentStatus, amount int64) models.Payment {
	t.Helper()
	payment := models.Payment{
		ID:       uuid.New(),
		OrderID:  f.order.ID,
		UserID:   f.userID,
		Amount:   decimal.NewFromInt(amount),
		Currency: "ETB",
		Status:   status,
		Provider: ProviderSantimPay,
	}
	reference := payment.ID.String()
	payment.ProviderReference = &reference
	require.NoError(t, f.db.Create(&payment).Error)
	return payment
}

func TestInitiateOrderPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initiation, err := f.svc.InitiateOrderPayment(ctx, f.userID, InitiatePaymentInput{OrderID: f.order.ID})
	require.NoError(t, err)
	require.NotNil(t, initiation.Payment)

	assert.Equal(t, "https://checkout.santimpay.com/pay/abc", initiation.CheckoutURL)
	assert.Equal(t, enums.PaymentStatusPending, initiation.Payment.Status)
	assert.True(t, initiation.Payment.Amount.Equal(f.order.TotalAmount))
	require.NotNil(t, initiation.Payment.ProviderReference)
	assert.Equal(t, initiation.Payment.ID.String(), *initiation.Payment.ProviderReference)

	var updated models.Order
	require.NoError(t, f.db.First(&updated, "id = ?", f.order.ID).Error)
	require.NotNil(t, updated.PaymentReference)
	assert.Equal(t, *initiation.Payment.ProviderReference, *updated.PaymentReference)
	require.NotNil(t, updated.PaymentMethod)
	assert.Equal(t, ProviderSantimPay, *updated.PaymentMethod)
}

func TestInitiatePaymentKeepsPendingRowOnGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.checkoutErr = assert.AnError

	_, err := f.svc.InitiateOrderPayment(context.Background(), f.userID, InitiatePaymentInput{OrderID: f.order.ID})
	require.Error(t, err)

	// The pending row survives the failed call so a later webhook still
	// has a payment to resolve against.
	var payment models.Payment
	require.NoError(t, f.db.First(&payment, "order_id = ?", f.order.ID).Error)
	assert.Equal(t, enums.PaymentStatusPending, payment.Status)

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", f.order.ID).Error)
	require.NotNil(t, order.PaymentReference)
	assert.Equal(t, payment.ID.String(), *order.PaymentReference)
}

func TestDirectPaymentMarksProcessingAfterGatewayAccepts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gateway.directResult = santimpay.TransactionResult{Status: "PROCESSING", RefID: "sp-direct-1"}

	initiation, err := f.svc.DirectPayment(ctx, f.userID, DirectPaymentInput{
		OrderID:       f.order.ID,
		PhoneNumber:   "+251911000000",
		PaymentMethod: "TELEBIRR",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusProcessing, initiation.Payment.Status)

	var payment models.Payment
	require.NoError(t, f.db.First(&payment, "id = ?", initiation.Payment.ID).Error)
	assert.Equal(t, enums.PaymentStatusProcessing, payment.Status)
	assert.Equal(t, "sp-direct-1", payment.Metadata["provider_ref_id"])
}

func TestDirectPaymentKeepsPendingRowOnGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.directErr = assert.AnError

	_, err := f.svc.DirectPayment(context.Background(), f.userID, DirectPaymentInput{
		OrderID:       f.order.ID,
		PhoneNumber:   "+251911000000",
		PaymentMethod: "TELEBIRR",
	})
	require.Error(t, err)

	var payment models.Payment
	require.NoError(t, f.db.First(&payment, "order_id = ?", f.order.ID).Error)
	assert.Equal(t, enums.PaymentStatusPending, payment.Status)
}

func TestInitiatePaymentRejectsNonPendingOrder(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.Order{}).
		Where("id = ?", f.order.ID).
		Update("status", enums.OrderStatusPaid).Error)

	_, err := f.svc.InitiateOrderPayment(context.Background(), f.userID, InitiatePaymentInput{OrderID: f.order.ID})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestInitiatePaymentForeignUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.InitiateOrderPayment(context.Background(), uuid.New(), InitiatePaymentInput{OrderID: f.order.ID})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestDirectPaymentRequiresPhone(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.DirectPayment(context.Background(), f.userID, DirectPaymentInput{
		OrderID:       f.order.ID,
		PaymentMethod: "TELEBIRR",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestApplyGatewayStatusCompletedMarksOrderPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.seedPayment(t, enums.PaymentStatusPending, 1500)

	applied, err := f.svc.ApplyGatewayStatus(ctx, payment.ID, "COMPLETED", nil)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, applied.Status)
	require.NotNil(t, applied.CompletedAt)

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", f.order.ID).Error)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)

	// The reservation was burned, not returned.
	var pool models.Inventory
	require.NoError(t, f.db.First(&pool, "id = ?", f.pool.ID).Error)
	assert.Equal(t, 7, pool.QuantityAvailable)
	assert.Equal(t, 0, pool.QuantityReserved)

	var events []models.OutboxEvent
	require.NoError(t, f.db.Order("event_type ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, enums.EventOrderPaid, events[0].EventType)
	assert.Equal(t, enums.EventPaymentCompleted, events[1].EventType)
}

func TestApplyGatewayStatusFailedReleasesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.seedPayment(t, enums.PaymentStatusPending, 1500)

	applied, err := f.svc.ApplyGatewayStatus(ctx, payment.ID, "FAILED", nil)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, applied.Status)

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", f.order.ID).Error)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)

	var pool models.Inventory
	require.NoError(t, f.db.First(&pool, "id = ?", f.pool.ID).Error)
	assert.Equal(t, 10, pool.QuantityAvailable)
	assert.Equal(t, 0, pool.QuantityReserved)
}

func TestApplyGatewayStatusIgnoresBackwardTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.seedPayment(t, enums.PaymentStatusCompleted, 1500)

	applied, err := f.svc.ApplyGatewayStatus(ctx, payment.ID, "PENDING", nil)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, applied.Status)

	// A redelivered success report is equally inert.
	applied, err = f.svc.ApplyGatewayStatus(ctx, payment.ID, "COMPLETED", nil)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, applied.Status)

	var events []models.OutboxEvent
	require.NoError(t, f.db.Find(&events).Error)
	assert.Empty(t, events)
}

func TestApplyGatewayStatusIgnoresUnknownVocabulary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.seedPayment(t, enums.PaymentStatusPending, 1500)

	applied, err := f.svc.ApplyGatewayStatus(ctx, payment.ID, "SOME_UNKNOWN_STATUS", nil)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, applied.Status)

	var stored models.Payment
	require.NoError(t, f.db.First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, enums.PaymentStatusPending, stored.Status)

	var events []models.OutboxEvent
	require.NoError(t, f.db.Find(&events).Error)
	assert.Empty(t, events)
}

func TestSyncRefundStatusIgnoresUnknownVocabulary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.seedPayment(t, enums.PaymentStatusCompleted, 1500)

	refund := models.Refund{
		ID:          uuid.New(),
		PaymentID:   payment.ID,
		Amount:      decimal.NewFromInt(400),
		Reason:      "one unit broken",
		Status:      enums.RefundStatusProcessing,
		RequestedBy: f.userID,
	}
	require.NoError(t, f.db.Create(&refund).Error)

	synced, err := f.svc.SyncRefundStatus(ctx, refund.ID, "SOME_UNKNOWN_STATUS")
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStatusProcessing, synced.Status)
}

func TestRequestRefundBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.seedPayment(t, enums.PaymentStatusCompleted, 1500)

	prior := models.Refund{
		ID:          uuid.New(),
		PaymentID:   payment.ID,
		Amount:      decimal.NewFromInt(1000),
		Reason:      "damaged item",
		Status:      enums.RefundStatusCompleted,
		RequestedBy: f.userID,
	}
	require.NoError(t, f.db.Create(&prior).Error)

	_, err := f.svc.RequestRefund(ctx, f.userID, RequestRefundInput{
		PaymentID: payment.ID,
		Amount:    decimal.NewFromInt(600),
		Reason:    "missing part",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	refund, err := f.svc.RequestRefund(ctx, f.userID, RequestRefundInput{
		PaymentID: payment.ID,
		Amount:    decimal.NewFromInt(500),
		Reason:    "missing part",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStatusRequested, refund.Status)
}

func TestRequestRefundRejectsPendingPayment(t *testing.T) {
	f := newFixture(t)
	payment := f.seedPayment(t, enums.PaymentStatusPending, 1500)

	_, err := f.svc.RequestRefund(context.Background(), f.userID, RequestRefundInput{
		PaymentID: payment.ID,
		Amount:    decimal.NewFromInt(100),
		Reason:    "changed my mind",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestExecuteRefundRequiresApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.seedPayment(t, enums.PaymentStatusCompleted, 1500)

	refund, err := f.svc.RequestRefund(ctx, f.userID, RequestRefundInput{
		PaymentID: payment.ID,
		Amount:    decimal.NewFromInt(500),
		Reason:    "damaged item",
	})
	require.NoError(t, err)

	_, err = f.svc.ExecuteRefund(ctx, refund.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Equal(t, 0, f.gateway.transferCalls)
}

func TestExecuteRefundSendsTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.seedPayment(t, enums.PaymentStatusCompleted, 1500)

	refund, err := f.svc.RequestRefund(ctx, f.userID, RequestRefundInput{
		PaymentID: payment.ID,
		Amount:    decimal.NewFromInt(500),
		Reason:    "damaged item",
	})
	require.NoError(t, err)
	_, err = f.svc.ApproveRefund(ctx, refund.ID)
	require.NoError(t, err)

	executed, err := f.svc.ExecuteRefund(ctx, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStatusProcessing, executed.Status)
	require.NotNil(t, executed.ProviderReference)
	assert.Equal(t, refund.ID.String(), *executed.ProviderReference)
	assert.Equal(t, 1, f.gateway.transferCalls)
}

func TestSyncRefundStatusFullRefundFlipsPaymentAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.seedPayment(t, enums.PaymentStatusCompleted, 1500)
	require.NoError(t, f.db.Model(&models.Order{}).
		Where("id = ?", f.order.ID).
		Update("status", enums.OrderStatusDelivered).Error)

	refund := models.Refund{
		ID:          uuid.New(),
		PaymentID:   payment.ID,
		Amount:      decimal.NewFromInt(1500),
		Reason:      "order lost in transit",
		Status:      enums.RefundStatusProcessing,
		RequestedBy: f.userID,
	}
	require.NoError(t, f.db.Create(&refund).Error)

	synced, err := f.svc.SyncRefundStatus(ctx, refund.ID, "COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStatusCompleted, synced.Status)

	var gotPayment models.Payment
	require.NoError(t, f.db.First(&gotPayment, "id = ?", payment.ID).Error)
	assert.Equal(t, enums.PaymentStatusRefunded, gotPayment.Status)

	var gotOrder models.Order
	require.NoError(t, f.db.First(&gotOrder, "id = ?", f.order.ID).Error)
	assert.Equal(t, enums.OrderStatusRefunded, gotOrder.Status)

	var events []models.OutboxEvent
	require.NoError(t, f.db.Order("event_type ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, enums.EventOrderRefunded, events[0].EventType)
	assert.Equal(t, enums.EventRefundCompleted, events[1].EventType)
}

func TestSyncRefundStatusPartialRefundKeepsPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.seedPayment(t, enums.PaymentStatusCompleted, 1500)

	refund := models.Refund{
		ID:          uuid.New(),
		PaymentID:   payment.ID,
		Amount:      decimal.NewFromInt(400),
		Reason:      "one unit broken",
		Status:      enums.RefundStatusProcessing,
		RequestedBy: f.userID,
	}
	require.NoError(t, f.db.Create(&refund).Error)

	synced, err := f.svc.SyncRefundStatus(ctx, refund.ID, "SUCCESS")
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStatusCompleted, synced.Status)

	var gotPayment models.Payment
	require.NoError(t, f.db.First(&gotPayment, "id = ?", payment.ID).Error)
	assert.Equal(t, enums.PaymentStatusCompleted, gotPayment.Status)
}
