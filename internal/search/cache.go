package search

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/common/metrics"
	"job-offer-pipeline/internal/models"
)

const (
	StatsCacheKey      = "job_offers:stats"
	StatsGenerationKey = "job_offers:stats:gen"
)

// storeIfCurrent writes the snapshot only while the generation it was
// computed under is still current.
const storeIfCurrentScript = `
local gen = redis.call("GET", KEYS[1]) or "0"
if gen ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`

// CachedEngine keeps Stats in Redis. Search and ListActive go straight to
// the wrapped engine. Redis failures fall back to the wrapped engine.
// Invalidate bumps a generation counter, and a snapshot computed under an
// older generation is never stored.
type CachedEngine struct {
	Engine
	redis  redis.Cmdable
	store  *redis.Script
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedEngine(inner Engine, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedEngine {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedEngine{
		Engine: inner,
		redis:  rdb,
		store:  redis.NewScript(storeIfCurrentScript),
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "stats-cache"}),
	}
}

func (c *CachedEngine) Stats(ctx context.Context) (*models.AggregateStats, error) {
	raw, err := c.redis.Get(ctx, StatsCacheKey).Bytes()
	switch {
	case err == nil:
		var stats models.AggregateStats
		if err := json.Unmarshal(raw, &stats); err == nil {
			metrics.StatsCacheLookups.WithLabelValues("hit").Inc()
			return &stats, nil
		}
		c.logger.Warn("discarding unreadable cached stats", map[string]interface{}{"error": err})
		metrics.StatsCacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.StatsCacheLookups.WithLabelValues("miss").Inc()
	default:
		c.logger.Warn("stats cache read failed", map[string]interface{}{"error": err})
		metrics.StatsCacheLookups.WithLabelValues("error").Inc()
	}

	return c.Refresh(ctx)
}

// Refresh recomputes the stats and stores them in the cache unless an
// Invalidate ran while they were being computed.
func (c *CachedEngine) Refresh(ctx context.Context) (*models.AggregateStats, error) {
	gen, genErr := c.generation(ctx)

	stats, err := c.Engine.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		c.logger.Warn("stats not cached", map[string]interface{}{"error": genErr})
		return stats, nil
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		c.logger.Warn("stats not cached", map[string]interface{}{"error": err})
		return stats, nil
	}

	stored, err := c.store.Run(ctx, c.redis,
		[]string{StatsGenerationKey, StatsCacheKey},
		gen, payload, c.ttl.Milliseconds()).Int64()
	switch {
	case err != nil:
		c.logger.Warn("stats cache write failed", map[string]interface{}{"error": err})
	case stored == 0:
		c.logger.Debug("stats snapshot superseded by invalidation", nil)
	}
	return stats, nil
}

// Invalidate drops the cached stats and advances the generation so that a
// refresh already in flight cannot store its snapshot.
func (c *CachedEngine) Invalidate(ctx context.Context) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, StatsGenerationKey)
		pipe.Del(ctx, StatsCacheKey)
		return nil
	})
	return err
}

func (c *CachedEngine) generation(ctx context.Context) (string, error) {
	gen, err := c.redis.Get(ctx, StatsGenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}
