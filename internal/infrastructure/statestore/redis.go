package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "oauth_state:"

// RedisStore is a Redis-backed single-use OAuth state store. TTL expiry is
// delegated to Redis; Consume uses GETDEL so an entry can be claimed at most
// once even across concurrent callbacks.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed OAuth state store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ ports.StateStore = (*RedisStore)(nil)

func (r *RedisStore) Put(ctx context.Context, state *domain.OAuthState, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal oauth state: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+state.State, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

func (r *RedisStore) Consume(ctx context.Context, nonce string) (*domain.OAuthState, error) {
	data, err := r.client.GetDel(ctx, redisKeyPrefix+nonce).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}

	var state domain.OAuthState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oauth state: %w", err)
	}
	return &state, nil
}
