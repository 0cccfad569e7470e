package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "oauth_state:"

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, state string, value OAuthState, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+state, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, state string) (*OAuthState, error) {
	raw, err := s.rdb.GetDel(ctx, redisKeyPrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}

	var value OAuthState
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode oauth state: %w", err)
	}
	return &value, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
