package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce tries to acquire a dedup lock for a handler + documentID.
// Returns true if this is the first time processing, false on a duplicate.
// When Redis is unavailable processing is allowed rather than blocked.
func (d *Deduper) AcquireOnce(ctx context.Context, handler string, documentID int) bool {
	key := fmt.Sprintf("dedup:%s:%d", handler, documentID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("handler", handler),
				zap.Int("document_id", documentID),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped duplicated event",
			zap.String("handler", handler),
			zap.Int("document_id", documentID),
			zap.String("dedup_key", key),
		)
	}

	return ok
}

// Release drops the dedup key so a manual re-trigger can run immediately.
func (d *Deduper) Release(ctx context.Context, handler string, documentID int) {
	d.rdb.Del(ctx, fmt.Sprintf("dedup:%s:%d", handler, documentID))
}
