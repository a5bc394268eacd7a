package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const ScoreCacheTTL = 5 * time.Minute

// CacheService provides a Redis cache-aside layer for post scores.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string, log zerolog.Logger) *CacheService {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		return &CacheService{}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// GetScore returns a cached post score. ok is false on a miss or when the
// cache is disabled.
func (c *CacheService) GetScore(ctx context.Context, postID string) (score float64, ok bool, err error) {
	if c == nil || c.rdb == nil {
		return 0, false, nil
	}
	score, err = c.rdb.Get(ctx, scoreKey(postID)).Float64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// SetScore stores a freshly recomputed post score.
func (c *CacheService) SetScore(ctx context.Context, postID string, score float64) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, scoreKey(postID), score, ScoreCacheTTL).Err()
}

// InvalidateScore removes a post score from cache.
func (c *CacheService) InvalidateScore(ctx context.Context, postID string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, scoreKey(postID)).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func scoreKey(postID string) string {
	return fmt.Sprintf("post:%s:score", postID)
}
