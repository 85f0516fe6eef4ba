package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

const rateLimitTimeout = 500 * time.Millisecond

// counterStore is the subset of the Redis client the limiter needs.
type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter is a fixed-window limiter keyed by client IP using Redis INCR/EXPIRE.
// A nil limiter, a nil store or any Redis error lets the request through.
type RateLimiter struct {
	store       counterStore
	maxRequests int
	window      time.Duration
	metrics     *Metrics
}

func NewRateLimiter(store counterStore, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, maxRequests: maxRequests, window: window}
}

// NewRedisClient connects to addr and returns nil when addr is empty or unreachable.
func NewRedisClient(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

// key format: rl:<window_seconds>:<identifier>
func (l *RateLimiter) key(ident string) string {
	return "rl:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + ident
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.store == nil || l.maxRequests <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), rateLimitTimeout)
		defer cancel()

		key := l.key(c.ClientIP())
		val, err := l.store.Incr(ctx, key).Result()
		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			// first hit in this window
			l.store.Expire(ctx, key, l.window)
		}

		if val > int64(l.maxRequests) {
			l.metrics.rateLimited(c.FullPath(), true)
			abortWithMessage(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		l.metrics.rateLimited(c.FullPath(), false)
		c.Next()
	}
}
