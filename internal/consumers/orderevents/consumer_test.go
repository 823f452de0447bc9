package orderevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	"github.com/sooqly/sooqly-backend/pkg/logger"
	"github.com/sooqly/sooqly-backend/pkg/outbox"
	"github.com/sooqly/sooqly-backend/pkg/outbox/idempotency"
)

type nopRunner struct{}

func (nopRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeStore struct {
	keys map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]string{}}
}

func (s *fakeStore) Get(ctx context.Context, key string) (string, error) {
	return s.keys[key], nil
}

func (s *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (s *fakeStore) IdempotencyKey(scope, id string) string {
	return "sq:idempotency:" + scope + ":" + id
}

func (s *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

type fakeApprover struct {
	orders []uuid.UUID
	err    error
}

func (f *fakeApprover) ApproveForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.orders = append(f.orders, orderID)
	return 1, nil
}

type fakeSettlement struct {
	prepared   []uuid.UUID
	recorded   []uuid.UUID
	prepareErr error
}

func (f *fakeSettlement) PrepareSplitSettlement(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error) {
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	f.prepared = append(f.prepared, paymentID)
	return &models.Settlement{ID: uuid.New(), PaymentID: paymentID}, nil
}

func (f *fakeSettlement) RecordSettlementEarnings(ctx context.Context, paymentID uuid.UUID) (*models.Settlement, error) {
	f.recorded = append(f.recorded, paymentID)
	return &models.Settlement{ID: uuid.New(), PaymentID: paymentID}, nil
}

type fakePaymentLister struct {
	payments []models.Payment
}

func (f *fakePaymentLister) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	return f.payments, nil
}

type fakeNotifier struct {
	notified []uuid.UUID
}

func (f *fakeNotifier) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, payload map[string]any) {
	f.notified = append(f.notified, userID)
}

type consumerFixture struct {
	consumer   *Consumer
	store      *fakeStore
	marketer   *fakeApprover
	settlement *fakeSettlement
	payments   *fakePaymentLister
	notifier   *fakeNotifier
}

func newConsumerFixture(t *testing.T) *consumerFixture {
	t.Helper()
	store := newFakeStore()
	manager, err := idempotency.NewManager(store, time.Hour)
	require.NoError(t, err)

	f := &consumerFixture{
		store:      store,
		marketer:   &fakeApprover{},
		settlement: &fakeSettlement{},
		payments:   &fakePaymentLister{},
		notifier:   &fakeNotifier{},
	}
	f.consumer = &Consumer{
		idempotency: manager,
		runner:      nopRunner{},
		marketer:    f.marketer,
		settlement:  f.settlement,
		payments:    f.payments,
		notify:      f.notifier,
		logg:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
	return f
}

func deliveredMessage(t *testing.T, eventID uuid.UUID, data outbox.OrderEventData) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       raw,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         "msg-" + eventID.String()[:8],
		Data:       body,
		Attributes: map[string]string{"event_type": string(enums.EventOrderDelivered)},
	}
}

func TestProcessIgnoresForeignEventTypes(t *testing.T) {
	f := newConsumerFixture(t)

	msg := &pubsub.Message{
		ID:         "msg-1",
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": string(enums.EventOrderCreated)},
	}
	result := f.consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.False(t, result.nack)
	assert.Empty(t, f.marketer.orders)
}

func TestProcessAcksMalformedEnvelope(t *testing.T) {
	f := newConsumerFixture(t)

	msg := &pubsub.Message{
		ID:         "msg-2",
		Data:       []byte(`{broken`),
		Attributes: map[string]string{"event_type": string(enums.EventOrderDelivered)},
	}
	result := f.consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.Empty(t, f.marketer.orders)
}

func TestProcessRunsDeliveryWorkflow(t *testing.T) {
	f := newConsumerFixture(t)

	orderID := uuid.New()
	userID := uuid.New()
	paymentID := uuid.New()
	f.payments.payments = []models.Payment{
		{ID: uuid.New(), OrderID: orderID, Status: enums.PaymentStatusFailed},
		{ID: paymentID, OrderID: orderID, Status: enums.PaymentStatusCompleted},
	}

	msg := deliveredMessage(t, uuid.New(), outbox.OrderEventData{
		OrderID:     orderID,
		OrderNumber: "ORD-EVT-0001",
		UserID:      userID,
		ShopID:      uuid.New(),
		Status:      string(enums.OrderStatusDelivered),
		TotalAmount: decimal.NewFromInt(1200),
	})
	result := f.consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.False(t, result.nack)

	assert.Equal(t, []uuid.UUID{orderID}, f.marketer.orders)
	assert.Equal(t, []uuid.UUID{paymentID}, f.settlement.prepared)
	assert.Equal(t, []uuid.UUID{paymentID}, f.settlement.recorded)
	assert.Equal(t, []uuid.UUID{userID}, f.notifier.notified)
}

func TestProcessSkipsRedeliveredEvent(t *testing.T) {
	f := newConsumerFixture(t)

	orderID := uuid.New()
	f.payments.payments = []models.Payment{
		{ID: uuid.New(), OrderID: orderID, Status: enums.PaymentStatusCompleted},
	}

	eventID := uuid.New()
	msg := deliveredMessage(t, eventID, outbox.OrderEventData{
		OrderID:     orderID,
		OrderNumber: "ORD-EVT-0002",
		UserID:      uuid.New(),
	})
	result := f.consumer.process(context.Background(), msg)
	require.True(t, result.ack)

	result = f.consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.Len(t, f.marketer.orders, 1)
	assert.Len(t, f.settlement.prepared, 1)
}

func TestProcessNacksAndReleasesOnWorkflowFailure(t *testing.T) {
	f := newConsumerFixture(t)

	orderID := uuid.New()
	f.payments.payments = []models.Payment{
		{ID: uuid.New(), OrderID: orderID, Status: enums.PaymentStatusCompleted},
	}
	f.settlement.prepareErr = fmt.Errorf("settlement storage down")

	msg := deliveredMessage(t, uuid.New(), outbox.OrderEventData{
		OrderID:     orderID,
		OrderNumber: "ORD-EVT-0003",
		UserID:      uuid.New(),
	})
	result := f.consumer.process(context.Background(), msg)
	assert.True(t, result.nack)
	assert.Empty(t, f.notifier.notified)

	// The idempotency mark was released, so the redelivery goes through.
	f.settlement.prepareErr = nil
	result = f.consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.Len(t, f.settlement.prepared, 1)
}

func TestProcessWithoutCompletedPayment(t *testing.T) {
	f := newConsumerFixture(t)

	orderID := uuid.New()
	userID := uuid.New()
	msg := deliveredMessage(t, uuid.New(), outbox.OrderEventData{
		OrderID:     orderID,
		OrderNumber: "ORD-EVT-0004",
		UserID:      userID,
	})
	result := f.consumer.process(context.Background(), msg)
	assert.True(t, result.ack)

	assert.Equal(t, []uuid.UUID{orderID}, f.marketer.orders)
	assert.Empty(t, f.settlement.prepared)
	assert.Equal(t, []uuid.UUID{userID}, f.notifier.notified)
}
