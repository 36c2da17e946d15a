package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists cart state per cart token.
type Store interface {
	Load(ctx context.Context, token string) (*State, error)
	Save(ctx context.Context, token string, state State) error
	Delete(ctx context.Context, token string) error
}

type blobStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(token string) string
}

// RedisStore keeps each cart as a JSON blob with a sliding TTL.
type RedisStore struct {
	client blobStore
	ttl    time.Duration
}

// NewRedisStore builds a cart store on top of the shared redis client.
func NewRedisStore(client blobStore, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Load returns nil state when the token has no cart yet.
func (s *RedisStore) Load(ctx context.Context, token string) (*State, error) {
	key := s.client.CartKey(token)
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if _, err := s.client.Expire(ctx, key, s.ttl); err != nil {
		return nil, fmt.Errorf("refresh cart ttl: %w", err)
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, token string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(token), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.client.CartKey(token)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
