package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// RedisStore keeps each cart as a JSON value under "<prefix>:cart:<session>"
// so every instance behind a load balancer sees the same cart.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("%s:cart:%s", s.prefix, sessionID)
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StorageUnavailableError{Op: "get cart", Err: err}
	}
	var items []models.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("get cart: decode: %w", err)
	}
	return items, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, items []models.CartItem) error {
	if len(items) == 0 {
		return s.Clear(ctx, sessionID)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("save cart: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), raw, s.ttl).Err(); err != nil {
		return &models.StorageUnavailableError{Op: "save cart", Err: err}
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return &models.StorageUnavailableError{Op: "clear cart", Err: err}
	}
	return nil
}
