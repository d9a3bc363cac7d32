package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKeyPrefix = "fleetdesk:session:"

// RedisStore keeps sessions in Redis so several instances can share them.
// Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore wraps a configured client. An empty keyPrefix selects
// DefaultRedisKeyPrefix.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(id string) string { return s.keyPrefix + id }

func (s *RedisStore) Put(ctx context.Context, id string, snap domain.Snapshot, ttl time.Duration) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (domain.Snapshot, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis get session: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode session: %w", err)
	}
	return snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Sweep is a no-op; Redis expires keys itself.
func (s *RedisStore) Sweep(context.Context) (int, error) { return 0, nil }

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
