package santimpaywebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sooqly/sooqly-backend/pkg/redis"
)

// IdempotencyGuard dampens webhook redeliveries with a short-lived redis
// claim. Processing stays idempotent without it; the guard only saves the
// duplicate round trip through the payment state machine.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &IdempotencyGuard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, reference string) (bool, error) {
	if reference == "" {
		return false, errors.New("reference is required")
	}
	key := g.store.IdempotencyKey(g.scope, reference)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

func (g *IdempotencyGuard) Delete(ctx context.Context, reference string) error {
	if reference == "" {
		return errors.New("reference is required")
	}
	key := g.store.IdempotencyKey(g.scope, reference)
	return g.store.Del(ctx, key)
}
