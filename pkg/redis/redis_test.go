package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/equityscore/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache.internal", Port: "6380", Password: "pw", DB: 2})
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "equityscore", opts.ClientName)
}

func TestRateLimiter_Windows(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "equityscore")
	base := time.UnixMilli(1_700_000_000_250)
	cfg := ClientRateLimit("10.0.0.1", 5)

	t.Run("same second shares a bucket", func(t *testing.T) {
		k1 := limiter.windowKey(cfg, base)
		k2 := limiter.windowKey(cfg, base.Add(700*time.Millisecond))
		assert.Equal(t, "equityscore:ratelimit:api:10.0.0.1:1700000000", k1)
		assert.Equal(t, k1, k2)
		assert.NotEqual(t, k1, limiter.windowKey(cfg, base.Add(750*time.Millisecond)))
	})

	t.Run("wait until the window rolls over", func(t *testing.T) {
		assert.Equal(t, 750*time.Millisecond, untilNextWindow(cfg, base))
		assert.Equal(t, 30*time.Second, untilNextWindow(WebhookRateLimit, time.UnixMilli(90_000)))
	})
}

func TestRateLimiter_NonPositiveLimit(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	allowed, _, err := limiter.Allow(context.Background(), ClientRateLimit("k", 0))
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	// When Redis is disabled, all requests should be allowed
	cfg := ClientRateLimit("127.0.0.1", 20)
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 20, remaining)

	assert.NoError(t, limiter.Wait(context.Background(), WebhookRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_GetOrSetDisabledCallsLoader(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")

	calls := 0
	var dest map[string]float64
	err := cache.GetOrSet(context.Background(), "k", &dest, TTLMedium, func() (interface{}, error) {
		calls++
		return map[string]float64{"total": 72.5}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 72.5, dest["total"])
}

func TestCacheKeys(t *testing.T) {
	hash := "0123456789abcdef0123"
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"TechnicalKey", TechnicalKey("AAPL", hash), "technical:AAPL:0123456789ab"},
		{"ValuationKey", ValuationKey("AAPL", hash), "valuation:AAPL:0123456789ab"},
		{"FundamentalsKey", FundamentalsKey("NVDA", hash), "fundamentals:NVDA:0123456789ab"},
		{"AnalysisKey", AnalysisKey("MSFT", ""), "analysis:MSFT:default"},
		{"short hash kept", TechnicalKey("KO", "abc"), "technical:KO:abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}
