package redis

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"dashgate/internal/platform/config"
)

// Client wraps the go-redis client with health checking and pool metrics.
type Client struct {
	*redis.Client
}

// New connects to Redis. Returns nil, nil when no URL is configured so callers
// fall back to in-memory stores.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// RegisterPoolMetrics exposes pool statistics, read at scrape time.
func (c *Client) RegisterPoolMetrics(reg prometheus.Registerer) error {
	stat := func(f func(*redis.PoolStats) uint32) func() float64 {
		return func() float64 { return float64(f(c.PoolStats())) }
	}
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "dashgate_redis_pool_hits_total",
			Help: "Number of times a connection was found in the pool",
		}, stat(func(s *redis.PoolStats) uint32 { return s.Hits })),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "dashgate_redis_pool_misses_total",
			Help: "Number of times a connection was not found in the pool",
		}, stat(func(s *redis.PoolStats) uint32 { return s.Misses })),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "dashgate_redis_pool_timeouts_total",
			Help: "Number of times a connection was not obtained due to timeout",
		}, stat(func(s *redis.PoolStats) uint32 { return s.Timeouts })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dashgate_redis_pool_total_conns",
			Help: "Number of total connections in the pool",
		}, stat(func(s *redis.PoolStats) uint32 { return s.TotalConns })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dashgate_redis_pool_idle_conns",
			Help: "Number of idle connections in the pool",
		}, stat(func(s *redis.PoolStats) uint32 { return s.IdleConns })),
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return fmt.Errorf("register redis pool metrics: %w", err)
		}
	}
	return nil
}
