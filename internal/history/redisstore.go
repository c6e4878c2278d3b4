package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/enzoh7/graphist-analyst/internal/logger"
	"github.com/enzoh7/graphist-analyst/internal/types"
)

// RedisStore persists cached series in Redis, for deployments where several
// bridge restarts or hosts should share one cache. Entries never expire;
// the overwrite-on-fetch policy keeps them current.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

type RedisParams struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewRedisStore(p RedisParams) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     p.Addr,
			Password: p.Password,
			DB:       p.DB,
		}),
		prefix: p.Prefix,
	}
}

// Ping verifies the Redis connection.
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

func (rs *RedisStore) key(symbol, timeframe string) string {
	return rs.prefix + "history:" + cacheKey(symbol, timeframe)
}

func (rs *RedisStore) Load(ctx context.Context, symbol, timeframe string) ([]types.Candle, bool, error) {
	data, err := rs.client.Get(ctx, rs.key(symbol, timeframe)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("history cache read failed: %w", err)
	}

	var candles []types.Candle
	if err := json.Unmarshal([]byte(data), &candles); err != nil {
		logger.Warn(ctx, "History cache entry corrupt, treating as absent", "key", rs.key(symbol, timeframe), "error", err)
		return nil, false, nil
	}
	if len(candles) == 0 {
		return nil, false, nil
	}
	return candles, true, nil
}

func (rs *RedisStore) Save(ctx context.Context, symbol, timeframe string, candles []types.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	data, err := json.Marshal(candles)
	if err != nil {
		return fmt.Errorf("failed to marshal history cache entry: %w", err)
	}
	return rs.client.Set(ctx, rs.key(symbol, timeframe), data, 0).Err()
}
