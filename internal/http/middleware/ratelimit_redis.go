package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ton_shooter/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter shared by all instances through Redis.
// Without Redis it counts in process memory.
type RateLimiter struct {
	client   *redis.Client
	fallback *memoryWindow
}

// NewRateLimiter connects to Redis at addr. An empty addr or a failed ping
// leaves the limiter on the in-memory fallback so the server stays available.
func NewRateLimiter(addr, password string, db int) *RateLimiter {
	l := &RateLimiter{fallback: newMemoryWindow()}
	if addr == "" {
		return l
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory rate limits", "addr", addr, "error", err)
		_ = client.Close()
		return l
	}
	l.client = client
	return l
}

// Redis returns the shared client, nil when running on the fallback.
func (l *RateLimiter) Redis() *redis.Client { return l.client }

func (l *RateLimiter) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}

// hit counts one request under key and returns the count in the current window.
func (l *RateLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if l.client == nil {
		return l.fallback.hit(key, window, time.Now()), nil
	}
	val, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		// first increment, set expiry
		l.client.Expire(ctx, key, window)
	}
	return val, nil
}

// ByIP limits requests per client IP.
// key format: rl:<scope>:<window_seconds>:<ip>
func (l *RateLimiter) ByIP(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()

		val, err := l.hit(c.Request.Context(), key, window)
		if err != nil {
			// on Redis error, fail-open (allow) but set header
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(scope).Inc()
		c.Next()
	}
}
