package ordernumber

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spsports/sps-backend/pkg/logger"
)

const (
	redisKeyPrefix = "order_seq:"
	// keys outlive the day by a margin so late requests around midnight still see them
	redisKeyTTL = 48 * time.Hour
)

// RedisSequencer reserves sequences with INCR on order_seq:<YYMMDD>.
type RedisSequencer struct {
	client redis.Cmdable
}

func NewRedisSequencer(client redis.Cmdable) *RedisSequencer {
	return &RedisSequencer{client: client}
}

func (s *RedisSequencer) Next(ctx context.Context, day string) (int64, error) {
	key := redisKeyPrefix + day

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, redisKeyTTL)
		return nil
	})
	if err != nil {
		logger.Error("Failed to increment order sequence", err, map[string]interface{}{
			"key": key,
		})
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}

	logger.Debug("Order sequence reserved", map[string]interface{}{
		"key": key,
		"seq": incr.Val(),
	})
	return incr.Val(), nil
}
