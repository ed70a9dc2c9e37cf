package authlockout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"taskmanager/internal/ratelimit/models"
	"taskmanager/pkg/requestcontext"
)

// RedisStore shares counters across instances. The window is the key's TTL,
// set when the first failure creates the key.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) RecordFailure(ctx context.Context, key string, window time.Duration) (*models.AuthLockout, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("incr auth lockout: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return nil, fmt.Errorf("expire auth lockout: %w", err)
		}
	}
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return &models.AuthLockout{
		Identifier:   key,
		FailureCount: int(count),
		WindowEnd:    requestcontext.Now(ctx).Add(ttl),
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*models.AuthLockout, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get auth lockout: %w", err)
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("parse auth lockout count: %w", err)
	}
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("ttl auth lockout: %w", err)
	}
	if ttl <= 0 {
		return nil, nil
	}
	return &models.AuthLockout{
		Identifier:   key,
		FailureCount: count,
		WindowEnd:    requestcontext.Now(ctx).Add(ttl),
	}, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear auth lockout: %w", err)
	}
	return nil
}
