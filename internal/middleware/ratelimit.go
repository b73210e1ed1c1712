package middleware

import (
	"log/slog"
	"net/http"

	"github.com/devevents/devevents/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit rejects clients exceeding perMinute requests. A store failure
// fails open.
func RateLimit(store ratelimit.Store, perMinute int) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if perMinute <= 0 {
			ctx.Next()
			return
		}

		count, err := store.Hit(ctx.Request.Context(), ctx.ClientIP())

		if err != nil {
			slog.Error("rate limit store failed", "error", err)
			ctx.Next()
			return
		}

		if count > int64(perMinute) {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "request limit reached"})
			return
		}

		ctx.Next()
	}
}
