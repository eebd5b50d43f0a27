package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/spigell/lead-scorer/internal/model"
)

const defaultCacheTTL = 10 * time.Minute

// Cached serves ListScoreResults from redis and drops the entry whenever the
// results of an offer change. Cache failures are logged and never fail the
// call; the wrapped store stays the source of truth.
type Cached struct {
	Store
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps store with a results cache kept in client.
func NewCached(store Store, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{Store: store, client: client, ttl: ttl, logger: logger}
}

func resultsKey(offerID string) string {
	return fmt.Sprintf("lead-scorer|results|offer_id:%s", offerID)
}

func (c *Cached) ListScoreResults(ctx context.Context, offerID string) ([]model.ScoreResult, error) {
	key := resultsKey(offerID)

	str, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var results []model.ScoreResult
		if err := json.Unmarshal([]byte(str), &results); err == nil {
			return results, nil
		}
		c.logger.Warn("dropping unreadable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("reading results cache", zap.String("key", key), zap.Error(err))
	}

	results, err := c.Store.ListScoreResults(ctx, offerID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return results, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("writing results cache", zap.String("key", key), zap.Error(err))
	}
	return results, nil
}

func (c *Cached) DeleteScoreResults(ctx context.Context, offerID string) error {
	if err := c.Store.DeleteScoreResults(ctx, offerID); err != nil {
		return err
	}
	c.invalidate(ctx, offerID)
	return nil
}

func (c *Cached) CreateScoreResult(ctx context.Context, result *model.ScoreResult) error {
	if err := c.Store.CreateScoreResult(ctx, result); err != nil {
		return err
	}
	c.invalidate(ctx, result.OfferID)
	return nil
}

func (c *Cached) invalidate(ctx context.Context, offerID string) {
	key := resultsKey(offerID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("invalidating results cache", zap.String("key", key), zap.Error(err))
	}
}

// Close closes the wrapped store and the redis client when it can be closed.
func (c *Cached) Close(ctx context.Context) error {
	err := c.Store.Close(ctx)
	if closer, ok := c.client.(interface{ Close() error }); ok {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
