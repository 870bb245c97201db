// Package redis caches phone reputation reads.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rgdevment/spamguard/internal/domain"
)

const keyPrefix = "spamguard:stats:"

// StatsCache is a lossy read-through cache. Redis trouble is logged and
// treated as a miss so reputation reads keep working without it.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewStatsCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *StatsCache {
	return &StatsCache{client: client, ttl: ttl, log: log}
}

func key(phone string) string { return keyPrefix + phone }

func (c *StatsCache) Get(ctx context.Context, phone string) (*domain.PhoneStats, bool) {
	data, err := c.client.Get(ctx, key(phone)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("stats cache get failed")
		return nil, false
	}

	var stats domain.PhoneStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.log.Warn().Err(err).Str("phone", phone).Msg("dropping undecodable stats cache entry")
		c.Invalidate(ctx, phone)
		return nil, false
	}
	return &stats, true
}

func (c *StatsCache) Set(ctx context.Context, stats *domain.PhoneStats) {
	data, err := json.Marshal(stats)
	if err != nil {
		c.log.Warn().Err(err).Msg("stats cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key(stats.PhoneNumber), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("stats cache set failed")
	}
}

func (c *StatsCache) Invalidate(ctx context.Context, phone string) {
	if err := c.client.Del(ctx, key(phone)).Err(); err != nil {
		c.log.Warn().Err(err).Str("phone", phone).Msg("stats cache invalidate failed")
	}
}
