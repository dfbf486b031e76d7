// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blind

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/constants"
)

// RedisQuota implements [Quota] with one expiring counter per (key, subject).
type RedisQuota struct {
	client redis.Cmdable
	limit  int64
}

// NewRedisQuota creates a Redis-backed quota allowing limit signatures per key.
func NewRedisQuota(client redis.Cmdable, limit int64) *RedisQuota {
	return &RedisQuota{client: client, limit: limit}
}

/*
Consume increments the counter and arms its expiry in one MULTI/EXEC.

Description: The counter lives exactly as long as the key it counts for, so
a rotation starts every subscriber from zero.
*/
func (quota *RedisQuota) Consume(ctx context.Context, keyID, subject string, window time.Duration) error {
	key := fmt.Sprintf("%s%s:%s", constants.RedisPrefixBlindQuota, keyID, subject)
	if window <= 0 {
		window = constants.BlindRotationRetryDelay
	}

	var count *redis.IntCmd
	_, err := quota.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("redis_blind_quota_consume_failed: %w", err))
	}

	if count.Val() > quota.limit {
		return apperr.RateLimited(int(math.Ceil(window.Seconds())))
	}
	return nil
}
