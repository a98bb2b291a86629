// internal/store/history_cache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	historyKeyPrefix     = "history:"
	historyVersionPrefix = "history-ver:"
)

// HistoryCache is a short-TTL Redis cache in front of the history query.
// Invalidation bumps a per-user version counter instead of scanning for
// keys, so stale pages just age out.
type HistoryCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewHistoryCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) *HistoryCache {
	return &HistoryCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "history-cache"}),
	}
}

func (c *HistoryCache) key(ctx context.Context, userID int64, limit, offset int) (string, error) {
	ver, err := c.rdb.Get(ctx, fmt.Sprintf("%s%d", historyVersionPrefix, userID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s%d:%d:%d:%d", historyKeyPrefix, userID, ver, limit, offset), nil
}

// Get returns a cached history page, or false on any miss or cache error.
// Cache failures never fail the request.
func (c *HistoryCache) Get(ctx context.Context, userID int64, limit, offset int) ([]*models.Prediction, bool) {
	key, err := c.key(ctx, userID, limit, offset)
	if err != nil {
		c.logger.Warn("history cache unavailable", map[string]interface{}{"error": err.Error()})
		return nil, false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("history cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}

	var records []*models.Prediction
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false
	}
	return records, true
}

// Set stores a history page. Best effort.
func (c *HistoryCache) Set(ctx context.Context, userID int64, limit, offset int, records []*models.Prediction) {
	key, err := c.key(ctx, userID, limit, offset)
	if err != nil {
		return
	}

	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("history cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Invalidate makes all cached pages for a user unreachable.
func (c *HistoryCache) Invalidate(ctx context.Context, userID int64) {
	if err := c.rdb.Incr(ctx, fmt.Sprintf("%s%d", historyVersionPrefix, userID)).Err(); err != nil {
		c.logger.Warn("history cache invalidation failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}
