package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
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

type CreateUserRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

type UpdateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"omitempty,email"`
	Bio       string `json:"bio"`
}

type UpdatePasswordRequest struct {
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type UserHandler struct {
	db       *gorm.DB
	sessions *auth.SessionManager
}

func NewUserHandler(conn *gorm.DB, sessions *auth.SessionManager) *UserHandler {
	return &UserHandler{db: conn, sessions: sessions}
}

func (h *UserHandler) Create(ctx *gin.Context) {
	var req CreateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.RenderBinding(ctx, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User

	err := h.db.Where("email = ?", req.Email).First(&existing).Error

	if err == nil {
		httperr.Render(ctx, httperr.Unprocessable("email", "This email already exists"))
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("failed to check existing email", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		slog.Error("failed to hash password", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
	}

	if err := h.db.Create(&user).Error; err != nil {
		slog.Error("failed to create user", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	ctx.JSON(http.StatusCreated, types.NewUserResponse(user))
}

func (h *UserHandler) List(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	if err != nil || limit < 1 {
		limit = 10
	}

	skip, err := strconv.Atoi(ctx.DefaultQuery("skip", "0"))

	if err != nil || skip < 0 {
		skip = 0
	}

	var users []models.User

	if err := h.db.Limit(limit).Offset(skip).Find(&users).Error; err != nil {
		slog.Error("failed to list users", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	response := make([]types.UserResponse, 0, len(users))

	for _, user := range users {
		response = append(response, types.NewUserResponse(user))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *UserHandler) Get(ctx *gin.Context) {
	user, err := h.fetchUser(ctx.Param("id"))

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewUserResponse(*user))
}

func (h *UserHandler) Update(ctx *gin.Context) {
	user, err := h.requireSelf(ctx, "You can only update your own profile")

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	var req UpdateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.RenderBinding(ctx, err)
		return
	}

	if req.Email != "" {
		newEmail := strings.ToLower(strings.TrimSpace(req.Email))

		if newEmail != user.Email {
			var existing models.User

			err := h.db.Where("email = ? AND id != ?", newEmail, user.ID).First(&existing).Error

			if err == nil {
				httperr.Render(ctx, httperr.Unprocessable("email", "This email already exists"))
				return
			}

			if !errors.Is(err, gorm.ErrRecordNotFound) {
				slog.Error("failed to check existing email", "error", err)
				httperr.Render(ctx, httperr.Internal())
				return
			}

			user.Email = newEmail
		}
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}

	if req.LastName != "" {
		user.LastName = req.LastName
	}

	if req.Bio != "" {
		user.Bio = req.Bio
	}

	if err := h.db.Save(user).Error; err != nil {
		slog.Error("failed to update user", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	ctx.JSON(http.StatusOK, types.NewUserResponse(*user))
}

func (h *UserHandler) UpdatePassword(ctx *gin.Context) {
	user, err := h.requireSelf(ctx, "You can only update your own password")

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	var req UpdatePasswordRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.RenderBinding(ctx, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Render(ctx, httperr.Unprocessable("password", "Incorrect old password"))
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)

	if err != nil {
		slog.Error("failed to hash password", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	if err := h.db.Model(user).Update("password_hash", string(passwordHash)).Error; err != nil {
		slog.Error("failed to update password", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password update successful"})
}

// Delete removes the account. Tokens are revoked first so every session
// dies, then hosted events (with their attendance rows) and the user's
// own attendances go before the user row itself.
func (h *UserHandler) Delete(ctx *gin.Context) {
	user, err := h.requireSelf(ctx, "You can only delete your own account")

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	if err := h.sessions.RevokeAll(user.ID); err != nil {
		slog.Error("failed to revoke tokens", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var events []models.Event

		if err := tx.Where("user_id = ?", user.ID).Find(&events).Error; err != nil {
			return err
		}

		for i := range events {
			if err := tx.Model(&events[i]).Association("Attendees").Clear(); err != nil {
				return err
			}
		}

		if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.Event{}).Error; err != nil {
			return err
		}

		if err := tx.Model(user).Association("AttendingEvents").Clear(); err != nil {
			return err
		}

		return tx.Unscoped().Delete(user).Error
	})

	if err != nil {
		slog.Error("failed to delete user", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	ctx.Status(http.StatusNoContent)
}

// AuthUserEvents lists the events hosted by the authenticated user.
func (h *UserHandler) AuthUserEvents(ctx *gin.Context) {
	user, err := middleware.CurrentUser(ctx)

	if err != nil {
		httperr.Render(ctx, httperr.Unauthenticated("User not authenticated"))
		return
	}

	events, err := h.hostedEvents(user.ID)

	if err != nil {
		slog.Error("failed to list hosted events", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// UserEvents returns a user together with the events they host.
func (h *UserHandler) UserEvents(ctx *gin.Context) {
	user, err := h.fetchUser(ctx.Param("id"))

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	events, err := h.hostedEvents(user.ID)

	if err != nil {
		slog.Error("failed to list hosted events", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	ctx.JSON(http.StatusOK, types.UserEventsResponse{
		UserSummary: types.NewUserSummary(*user),
		Events:      events,
	})
}

func (h *UserHandler) hostedEvents(userID uint) ([]types.EventResponse, error) {
	var events []models.Event

	err := h.db.
		Preload("Category").
		Preload("Attendees").
		Where("user_id = ?", userID).
		Find(&events).Error

	if err != nil {
		return nil, err
	}

	response := make([]types.EventResponse, 0, len(events))

	for _, event := range events {
		response = append(response, types.NewEventResponse(event, false))
	}

	return response, nil
}

func (h *UserHandler) fetchUser(idParam string) (*models.User, error) {
	id, err := strconv.ParseUint(idParam, 10, 64)

	if err != nil {
		return nil, httperr.NotFound()
	}

	var user models.User

	if err := h.db.First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound()
		}
		return nil, err
	}

	return &user, nil
}

// requireSelf resolves the :id parameter and rejects with Forbidden unless
// it names the authenticated user.
func (h *UserHandler) requireSelf(ctx *gin.Context, message string) (*models.User, error) {
	user, err := middleware.CurrentUser(ctx)

	if err != nil {
		return nil, httperr.Unauthenticated("User not authenticated")
	}

	target, err := h.fetchUser(ctx.Param("id"))

	if err != nil {
		return nil, err
	}

	if target.ID != user.ID {
		return nil, httperr.Forbidden(message)
	}

	return user, nil
}
