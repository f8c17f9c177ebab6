package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/domain/repository"
	"hbpr-validation-service/pkg/sentinel"
)

const summaryKeyPrefix = "hbpr:summary:"

// RedisReportCache is a Redis-backed ReportCache
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReportCache creates a report cache with entries expiring after ttl
func NewRedisReportCache(client *redis.Client, ttl time.Duration) repository.ReportCache {
	return &RedisReportCache{
		client: client,
		ttl:    ttl,
	}
}

// GetSummary returns sentinel.ErrNotFound on a cache miss
func (c *RedisReportCache) GetSummary(ctx context.Context, flightID string) (*entity.FlightSummary, error) {
	raw, err := c.client.Get(ctx, summaryKeyPrefix+flightID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("summary %s: %w", flightID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get summary %s: %v: %w", flightID, err, sentinel.ErrUnavailable)
	}

	var summary entity.FlightSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode summary %s: %w", flightID, err)
	}
	return &summary, nil
}

// SetSummary stores a summary with the cache TTL
func (c *RedisReportCache) SetSummary(ctx context.Context, summary *entity.FlightSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKeyPrefix+summary.Stats.FlightID, raw, c.ttl).Err()
}

// Invalidate drops the cached summary of a flight
func (c *RedisReportCache) Invalidate(ctx context.Context, flightID string) error {
	return c.client.Del(ctx, summaryKeyPrefix+flightID).Err()
}
