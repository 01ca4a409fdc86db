package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/localelore/localelore/internal/pkg/metrics"
)

// Cache implements ports.CacheService on Valkey. The viewport tile cache
// lives in-process; this layer backs the slower-moving lookups (facts by ID,
// categories, trending) that every API instance can share.
type Cache struct {
	client valkey.Client
}

// New connects to a Valkey node and verifies it responds.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client}, nil
}

// Get retrieves a value by key. A missing key returns the client's nil error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			metrics.CacheOps.WithLabelValues("get", "miss").Inc()
		} else {
			metrics.CacheOps.WithLabelValues("get", "error").Inc()
		}
		return nil, err
	}
	b, err := cmd.AsBytes()
	if err != nil {
		metrics.CacheOps.WithLabelValues("get", "error").Inc()
		return nil, err
	}
	metrics.CacheOps.WithLabelValues("get", "hit").Inc()
	return b, nil
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(key).Value(string(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	if err := cmd.Error(); err != nil {
		metrics.CacheOps.WithLabelValues("set", "error").Inc()
		return err
	}
	metrics.CacheOps.WithLabelValues("set", "ok").Inc()
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	cmd := c.client.Do(ctx, c.client.B().Del().Key(key).Build())
	if err := cmd.Error(); err != nil {
		metrics.CacheOps.WithLabelValues("del", "error").Inc()
		return err
	}
	metrics.CacheOps.WithLabelValues("del", "ok").Inc()
	return nil
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
