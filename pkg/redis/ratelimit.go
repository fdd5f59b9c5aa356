package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter counts hits per fixed window in Redis so every API replica
// and scheduler instance draws from the same budget
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
	now    func() time.Time
}

// RateLimitConfig is one budget: Limit hits per Window under Key
type RateLimitConfig struct {
	Key    string
	Limit  int
	Window time.Duration
}

func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix, now: time.Now}
}

// windowKey buckets t into the window it falls in
func (r *RateLimiter) windowKey(cfg RateLimitConfig, t time.Time) string {
	bucket := t.UnixMilli() / cfg.Window.Milliseconds()
	return fmt.Sprintf("%s:ratelimit:%s:%d", r.prefix, cfg.Key, bucket)
}

// untilNextWindow is how long a denied caller waits before its budget resets
func untilNextWindow(cfg RateLimitConfig, t time.Time) time.Duration {
	w := cfg.Window.Milliseconds()
	return time.Duration(w-t.UnixMilli()%w) * time.Millisecond
}

// Allow takes one hit from the budget and reports what is left.
// A disabled client or a non-positive limit never denies.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() || cfg.Limit <= 0 || cfg.Window <= 0 {
		return true, cfg.Limit, nil
	}

	key := r.windowKey(cfg, r.now())
	pipe := r.client.Redis().TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.PExpire(ctx, key, cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}

	count := int(incr.Val())
	if count > cfg.Limit {
		return false, 0, nil
	}
	return true, cfg.Limit - count, nil
}

// Wait blocks until the budget admits one hit or ctx ends
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		timer := time.NewTimer(untilNextWindow(cfg, r.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// ClientRateLimit is the per-client API budget in requests per second
func ClientRateLimit(clientKey string, rps int) RateLimitConfig {
	return RateLimitConfig{Key: "api:" + clientKey, Limit: rps, Window: time.Second}
}

// WebhookRateLimit: 알림 웹훅 분당 30회 제한 (보수적)
var WebhookRateLimit = RateLimitConfig{Key: "webhook", Limit: 30, Window: time.Minute}
