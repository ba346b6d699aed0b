package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const tickLockKey = "scheduler:mailbox:tick"

// RedisTickLock serializes scheduler ticks across process restarts and
// replicas via a SetNX lease.
type RedisTickLock struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisTickLock(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisTickLock {
	if ttl == 0 {
		ttl = time.Minute
	}
	return &RedisTickLock{rdb: rdb, ttl: ttl, logger: logger}
}

// TryAcquire returns true when this tick may run. When Redis is unavailable
// the tick is allowed through rather than silently stalling ingestion.
func (l *RedisTickLock) TryAcquire(ctx context.Context) bool {
	ok, err := l.rdb.SetNX(ctx, tickLockKey, 1, l.ttl).Result()
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("Redis tick lock check failed, allowing tick", zap.Error(err))
		}
		return true
	}
	return ok
}

func (l *RedisTickLock) Release(ctx context.Context) {
	l.rdb.Del(ctx, tickLockKey)
}
