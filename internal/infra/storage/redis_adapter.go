package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/redis/go-redis/v9"
)

// RedisAdapter backs outbound.ClaimStore. Approaching-notification claims
// and consumer idempotency keys both live here.
type RedisAdapter struct {
	client redis.UniversalClient
}

func NewRedisAdapter(c redis.UniversalClient) *RedisAdapter {
	return &RedisAdapter{client: c}
}

func (r *RedisAdapter) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, value, expiration).Result()
	if err != nil {
		return false, fmt.Errorf("%w: claim %s: %w", entity.ErrStoreUnavailable, key, err)
	}
	return ok, nil
}

func (r *RedisAdapter) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: release %s: %w", entity.ErrStoreUnavailable, key, err)
	}
	return nil
}
