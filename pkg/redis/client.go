// Package redis provides a thin wrapper around go-redis/v9 with connection
// pooling, pipelined hash writes and key expiry.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/config"
)

// Client wraps a go-redis client.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a Redis client and verifies the connection with a PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// WriteHash stores field/value pairs (flattened name, value, name, value...)
// in the hash at key, one pipeline round-trip per batch of batchSize fields.
// A positive ttl is applied with the last batch.
func (c *Client) WriteHash(ctx context.Context, key string, pairs []any, batchSize int, ttl time.Duration) error {
	if len(pairs)%2 != 0 {
		return fmt.Errorf("writing hash %s: odd number of arguments", key)
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	step := batchSize * 2
	for start := 0; start < len(pairs) || start == 0; start += step {
		end := min(start+step, len(pairs))
		pipe := c.rdb.Pipeline()
		if end > start {
			pipe.HSet(ctx, key, pairs[start:end]...)
		}
		if end == len(pairs) && ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			return fmt.Errorf("writing hash %s: %w", key, err)
		}
		if end == len(pairs) {
			break
		}
	}
	return nil
}

// Set stores a value with the given TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping sends a PING to Redis and returns any error.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
