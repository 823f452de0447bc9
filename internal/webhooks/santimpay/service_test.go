package santimpaywebhook

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
)

type fakeProcessor struct {
	payment      *models.Payment
	applied      *models.Payment
	refund       *models.Refund
	appliedCalls []string
	syncedCalls  []string
}

func (f *fakeProcessor) FindPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	if f.payment != nil && f.payment.ProviderReference != nil && *f.payment.ProviderReference == reference {
		return f.payment, nil
	}
	return nil, nil
}

func (f *fakeProcessor) ApplyGatewayStatus(ctx context.Context, paymentID uuid.UUID, gatewayStatus string, raw map[string]any) (*models.Payment, error) {
	f.appliedCalls = append(f.appliedCalls, gatewayStatus)
	if f.applied != nil {
		return f.applied, nil
	}
	return f.payment, nil
}

func (f *fakeProcessor) FindRefundByReference(ctx context.Context, reference string) (*models.Refund, error) {
	if f.refund != nil && f.refund.ProviderReference != nil && *f.refund.ProviderReference == reference {
		return f.refund, nil
	}
	return nil, nil
}

func (f *fakeProcessor) SyncRefundStatus(ctx context.Context, refundID uuid.UUID, gatewayStatus string) (*models.Refund, error) {
	f.syncedCalls = append(f.syncedCalls, gatewayStatus)
	return f.refund, nil
}

type fakeBooker struct {
	booked []uuid.UUID
}

func (f *fakeBooker) CreateShipmentForOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	f.booked = append(f.booked, orderID)
	return &models.Shipment{ID: uuid.New(), OrderID: orderID}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:webhooks_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS webhook_logs (
  id TEXT PRIMARY KEY,
  provider TEXT NOT NULL,
  event_type TEXT NOT NULL,
  reference TEXT NOT NULL,
  payload TEXT,
  processed INTEGER NOT NULL DEFAULT 0,
  processing_attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func paymentWithReference(reference string, status enums.PaymentStatus) *models.Payment {
	return &models.Payment{
		ID:                uuid.New(),
		OrderID:           uuid.New(),
		UserID:            uuid.New(),
		Status:            status,
		Provider:          "santimpay",
		ProviderReference: &reference,
	}
}

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent([]byte(`{"txnId":"abc-123","Status":"COMPLETED","refId":"SP99","totalAmount":1500.5,"paymentVia":"TELEBIRR"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", event.Reference())
	assert.Equal(t, "COMPLETED", event.Status)
	assert.Equal(t, "SP99", event.RefID)
	assert.InDelta(t, 1500.5, event.TotalAmount, 0.001)
	assert.Equal(t, "abc-123", event.Raw["txnId"])
}

func TestParseEventReferenceFallbacks(t *testing.T) {
	event, err := ParseEvent([]byte(`{"clientReference":"ref-1","status":"failed"}`))
	require.NoError(t, err)
	assert.Equal(t, "ref-1", event.Reference())
	assert.Equal(t, "failed", event.Status)

	event, err = ParseEvent([]byte(`{"thirdPartyId":"tp-7"}`))
	require.NoError(t, err)
	assert.Equal(t, "tp-7", event.Reference())
}

func TestParseEventRejectsMalformedPayload(t *testing.T) {
	_, err := ParseEvent([]byte(`{"txnId":`))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestHandleEventCompletesPaymentAndBooksShipment(t *testing.T) {
	db := newTestDB(t)
	processor := &fakeProcessor{payment: paymentWithReference("pay-ref-1", enums.PaymentStatusPending)}
	completed := *processor.payment
	completed.Status = enums.PaymentStatusCompleted
	processor.applied = &completed
	booker := &fakeBooker{}

	svc, err := NewService(ServiceParams{
		Payments: processor,
		Shipping: booker,
		Logs:     NewLogRepository(db),
	})
	require.NoError(t, err)

	event, err := ParseEvent([]byte(`{"txnId":"pay-ref-1","Status":"COMPLETED"}`))
	require.NoError(t, err)
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	require.Equal(t, []string{"COMPLETED"}, processor.appliedCalls)
	require.Len(t, booker.booked, 1)
	assert.Equal(t, processor.payment.OrderID, booker.booked[0])

	var log models.WebhookLog
	require.NoError(t, db.First(&log, "reference = ?", "pay-ref-1").Error)
	assert.True(t, log.Processed)
	assert.Equal(t, 1, log.ProcessingAttempts)
	assert.Nil(t, log.LastError)
}

func TestHandleEventSkipsShipmentWhenAlreadyCompleted(t *testing.T) {
	db := newTestDB(t)
	processor := &fakeProcessor{payment: paymentWithReference("pay-ref-2", enums.PaymentStatusCompleted)}
	booker := &fakeBooker{}

	svc, err := NewService(ServiceParams{
		Payments: processor,
		Shipping: booker,
		Logs:     NewLogRepository(db),
	})
	require.NoError(t, err)

	event, err := ParseEvent([]byte(`{"txnId":"pay-ref-2","Status":"COMPLETED"}`))
	require.NoError(t, err)
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Empty(t, booker.booked)
}

func TestHandleEventRoutesRefund(t *testing.T) {
	db := newTestDB(t)
	reference := "refund-ref-1"
	processor := &fakeProcessor{
		refund: &models.Refund{
			ID:                uuid.New(),
			PaymentID:         uuid.New(),
			Status:            enums.RefundStatusProcessing,
			ProviderReference: &reference,
		},
	}

	svc, err := NewService(ServiceParams{
		Payments: processor,
		Logs:     NewLogRepository(db),
	})
	require.NoError(t, err)

	event, err := ParseEvent([]byte(`{"txnId":"refund-ref-1","Status":"SUCCESS"}`))
	require.NoError(t, err)
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	assert.Empty(t, processor.appliedCalls)
	assert.Equal(t, []string{"SUCCESS"}, processor.syncedCalls)
}

func TestHandleEventUnmatchedReference(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(ServiceParams{
		Payments: &fakeProcessor{},
		Logs:     NewLogRepository(db),
	})
	require.NoError(t, err)

	event, err := ParseEvent([]byte(`{"txnId":"nobody-knows","Status":"COMPLETED"}`))
	require.NoError(t, err)
	err = svc.HandleEvent(context.Background(), event)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	var log models.WebhookLog
	require.NoError(t, db.First(&log, "reference = ?", "nobody-knows").Error)
	assert.False(t, log.Processed)
	require.NotNil(t, log.LastError)
	assert.Equal(t, 1, log.ProcessingAttempts)
}

func TestHandleEventRequiresReference(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(ServiceParams{
		Payments: &fakeProcessor{},
		Logs:     NewLogRepository(db),
	})
	require.NoError(t, err)

	event, err := ParseEvent([]byte(`{"Status":"COMPLETED"}`))
	require.NoError(t, err)
	err = svc.HandleEvent(context.Background(), event)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
