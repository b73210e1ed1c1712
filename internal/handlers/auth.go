package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devevents/devevents/internal/auth"
	"github.com/devevents/devevents/internal/httperr"
	"github.com/devevents/devevents/internal/middleware"
	"github.com/devevents/devevents/internal/models"
	"github.com/devevents/devevents/internal/types"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthHandler struct {
	db       *gorm.DB
	sessions *auth.SessionManager
}

func NewAuthHandler(conn *gorm.DB, sessions *auth.SessionManager) *AuthHandler {
	return &AuthHandler{db: conn, sessions: sessions}
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.RenderBinding(ctx, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User

	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Render(ctx, httperr.Unauthenticated("Invalid credentials"))
			return
		}

		slog.Error("failed to fetch user for login", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Render(ctx, httperr.Unauthenticated("Invalid credentials"))
		return
	}

	token, err := h.sessions.Issue(user.ID)

	if err != nil {
		slog.Error("failed to issue token", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	ctx.JSON(http.StatusOK, types.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	user, err := middleware.CurrentUser(ctx)

	if err != nil {
		httperr.Render(ctx, httperr.Unauthenticated("User not authenticated"))
		return
	}

	if err := h.sessions.RevokeAll(user.ID); err != nil {
		slog.Error("failed to revoke tokens", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	ctx.Status(http.StatusNoContent)
}
