package middleware

import (
	"time"

	"ton_shooter/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const HeaderRequestID = "X-Request-ID"

// RequestLog tags each request with an id and logs it once finished. Handlers
// reach the tagged logger through logger.WithContext(c.Request.Context()).
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = ulid.Make().String()
		}
		c.Header(HeaderRequestID, id)

		log := logger.With("request_id", id)
		c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), log))

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if accountID := c.GetInt64(KeyAccountID); accountID != 0 {
			args = append(args, "account_id", accountID)
		}
		switch {
		case status >= 500:
			log.Error("request", args...)
		case status >= 400:
			log.Info("request", args...)
		default:
			log.Debug("request", args...)
		}
	}
}
