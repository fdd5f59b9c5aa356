package api

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/wonny/equityscore/pkg/redis"
)

// Limiter decides whether a client may make one more request
type Limiter interface {
	Allow(ctx context.Context, clientKey string) (bool, error)
}

// maxTrackedClients bounds the in-process limiter table
const maxTrackedClients = 10000

// LocalLimiter is a token bucket per client kept in process memory
type LocalLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

// NewLocalLimiter allows rps requests per second per client with burst
func NewLocalLimiter(rps, burst int) *LocalLimiter {
	return &LocalLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

// Allow takes one token from the client's bucket
func (l *LocalLimiter) Allow(_ context.Context, clientKey string) (bool, error) {
	l.mu.Lock()
	lim, ok := l.clients[clientKey]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.clients = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.rps, l.burst)
		l.clients[clientKey] = lim
	}
	l.mu.Unlock()

	return lim.Allow(), nil
}

// RedisLimiter shares a per-second budget across API replicas
type RedisLimiter struct {
	limiter *redis.RateLimiter
	rps     int
}

// NewRedisLimiter wraps the Redis fixed-window limiter
func NewRedisLimiter(limiter *redis.RateLimiter, rps int) *RedisLimiter {
	return &RedisLimiter{limiter: limiter, rps: rps}
}

// Allow checks the client's window in Redis
func (l *RedisLimiter) Allow(ctx context.Context, clientKey string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, redis.ClientRateLimit(clientKey, l.rps))
	return allowed, err
}
