package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sooqly/sooqly-backend/pkg/config"
	"github.com/sooqly/sooqly-backend/pkg/db/models"
	"github.com/sooqly/sooqly-backend/pkg/enums"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error {
	return p.err
}

type fakeRepository struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (r *fakeRepository) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	if limit > len(r.events) {
		limit = len(r.events)
	}
	return r.events[:limit], nil
}

func (r *fakeRepository) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepository) MarkFailed(id uuid.UUID, err error) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(ctx context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	return fakeResult{err: p.err}
}

func newPublisherService(t *testing.T, repo *fakeRepository, pub *fakePublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:         fakePinger{},
		PubSub:     fakePinger{},
		Repository: repo,
		Publisher:  pub,
	})
	require.NoError(t, err)
	return svc
}

func queuedEvent(t *testing.T, eventType enums.OutboxEventType) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"version": 1,
		"eventId": uuid.NewString(),
		"data":    map[string]any{"orderId": uuid.NewString()},
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
}

func TestProcessBatchPublishesEvents(t *testing.T) {
	repo := &fakeRepository{events: []models.OutboxEvent{
		queuedEvent(t, enums.EventOrderCreated),
		queuedEvent(t, enums.EventOrderPaid),
	}}
	pub := &fakePublisher{}
	svc := newPublisherService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, pub.messages, 2)
	assert.Equal(t, []uuid.UUID{repo.events[0].ID, repo.events[1].ID}, repo.published)
	assert.Empty(t, repo.failed)

	attrs := pub.messages[0].Attributes
	assert.Equal(t, string(enums.EventOrderCreated), attrs["event_type"])
	assert.Equal(t, repo.events[0].AggregateID.String(), attrs["aggregate_id"])
	assert.NotEmpty(t, attrs["event_id"])
}

func TestProcessBatchMarksFailures(t *testing.T) {
	repo := &fakeRepository{events: []models.OutboxEvent{queuedEvent(t, enums.EventOrderCreated)}}
	pub := &fakePublisher{err: errors.New("topic unavailable")}
	svc := newPublisherService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Empty(t, repo.published)
	assert.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.failed)
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	svc := newPublisherService(t, &fakeRepository{}, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	svc := newPublisherService(t, &fakeRepository{}, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunFailsWhenDependencyDown(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:         fakePinger{err: errors.New("connection refused")},
		PubSub:     fakePinger{},
		Repository: &fakeRepository{},
		Publisher:  &fakePublisher{},
	})
	require.NoError(t, err)

	err = svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database ping failed")
}

func TestNextBackoffCapsAtMax(t *testing.T) {
	base := 500 * time.Millisecond
	current := base
	for i := 0; i < 10; i++ {
		current = nextBackoff(current, base, maxBackoff)
	}
	assert.Equal(t, maxBackoff, current)

	assert.Equal(t, time.Second, nextBackoff(base, base, maxBackoff))
	assert.Equal(t, base*2, nextBackoff(0, base, maxBackoff))
}
