package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wonny/equityscore/pkg/config"
)

const pingTimeout = 3 * time.Second

// Client backs the report cache and the shared rate limits. A disabled
// client is valid and turns both into no-ops.
// ⭐ SSOT: Redis 연결은 여기서만
type Client struct {
	rdb *goredis.Client
}

// Options maps REDIS_* settings onto go-redis options
func Options(cfg config.RedisConfig) *goredis.Options {
	return &goredis.Options{
		Addr:       net.JoinHostPort(cfg.Host, cfg.Port),
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: "equityscore",
	}
}

// New returns a disabled client unless REDIS_ENABLED is set
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	opts := Options(cfg.Redis)
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Close is a no-op on a disabled client
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Client) Enabled() bool { return c != nil && c.rdb != nil }

// Redis is nil when disabled
func (c *Client) Redis() *goredis.Client { return c.rdb }
