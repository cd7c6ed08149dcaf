package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// PerAccount limits actions per account (not per IP). Requires JWT to run
// before it.
func (l *RateLimiter) PerAccount(scope string, maxActions int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetInt64(KeyAccountID)
		if accountID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		key := "game_rl:" + scope + ":" + strconv.FormatInt(accountID, 10) + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		val, err := l.hit(c.Request.Context(), key, window)
		if err != nil {
			c.Header("X-GameRateLimit-Error", "redis-error")
			c.Next()
			return
		}

		// Set headers for client info
		c.Header("X-GameRateLimit-Limit", strconv.Itoa(maxActions))
		c.Header("X-GameRateLimit-Remaining", strconv.FormatInt(max(0, int64(maxActions)-val), 10))

		if val > int64(maxActions) {
			RLBlocked.WithLabelValues("game:" + scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues("game:" + scope).Inc()
		c.Next()
	}
}
