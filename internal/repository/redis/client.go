package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// progressTTL is how long a training run's keys outlive its last update.
const progressTTL = 7 * 24 * time.Hour

// Client stores live training progress. It implements
// repository.ProgressCache.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient connects to Redis at redisURL.
func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewClientFromPool(rdb), nil
}

// NewClientFromPool wraps an existing redis.Client for use in tests.
func NewClientFromPool(rdb *redis.Client) *Client {
	return &Client{rdb: rdb, ttl: progressTTL}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
