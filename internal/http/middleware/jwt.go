package middleware

import (
	"net/http"
	"strings"

	"ton_shooter/internal/service"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWT.
const (
	KeyAccountID = "user_id"
	KeyTgID      = "tg_id"
)

type TokenParser interface {
	Parse(token string) (*service.Claims, error)
}

// JWT checks "Authorization: Bearer <token>" and puts the account into the
// gin context.
func JWT(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(KeyAccountID, claims.AccountID)
		c.Set(KeyTgID, claims.TgID)
		c.Next()
	}
}

// Admin lets through only accounts whose tg id passes isAdmin. Runs after JWT.
func Admin(isAdmin func(tgID int64) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tgID := c.GetInt64(KeyTgID)
		if tgID == 0 || !isAdmin(tgID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
