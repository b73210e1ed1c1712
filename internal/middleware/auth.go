package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devevents/devevents/internal/auth"
	"github.com/devevents/devevents/internal/httperr"
	"github.com/devevents/devevents/internal/models"
	"github.com/gin-gonic/gin"
)

const ContextUserKey = "user"

// Auth gates protected routes. Header-shape failures get distinguishing
// messages; a present-but-rejected token gets the uniform one from the
// session manager.
func Auth(sessions *auth.SessionManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")

		if header == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header not provided"})
			return
		}

		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization header. Must start with Bearer"})
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		if tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid authentication token"})
			return
		}

		user, err := sessions.Resolve(tokenString)

		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
				return
			}

			slog.Error("session resolve failed", "error", err)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": httperr.Internal().Message})
			return
		}

		ctx.Set(ContextUserKey, user)
		ctx.Next()
	}
}

// CurrentUser returns the user the auth middleware stored on the context.
func CurrentUser(ctx *gin.Context) (*models.User, error) {
	value, exists := ctx.Get(ContextUserKey)

	if !exists {
		return nil, fmt.Errorf("user not authenticated")
	}

	user, ok := value.(*models.User)

	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return user, nil
}
