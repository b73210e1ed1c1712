package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/devevents/devevents/internal/attendance"
	"github.com/devevents/devevents/internal/geocode"
	"github.com/devevents/devevents/internal/httperr"
	"github.com/devevents/devevents/internal/mailer"
	"github.com/devevents/devevents/internal/middleware"
	"github.com/devevents/devevents/internal/models"
	"github.com/devevents/devevents/internal/types"
	"github.com/devevents/devevents/internal/upload"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateEventRequest struct {
	Title         string    `json:"title" binding:"required,min=3,max=255"`
	Description   string    `json:"description" binding:"required,min=3,max=1000"`
	AttendeeTotal int       `json:"attendee_total" binding:"required,min=1"`
	Venue         string    `json:"venue" binding:"required,min=3,max=255"`
	Date          time.Time `json:"date" binding:"required"`
	CategoryID    uint      `json:"category_id" binding:"required"`
}

type UpdateEventRequest struct {
	Title         *string    `json:"title" binding:"omitempty,min=3,max=255"`
	Description   *string    `json:"description" binding:"omitempty,min=3,max=1000"`
	AttendeeTotal *int       `json:"attendee_total" binding:"omitempty,min=1"`
	Venue         *string    `json:"venue" binding:"omitempty,min=3,max=255"`
	Date          *time.Time `json:"date"`
	CategoryID    *uint      `json:"category_id"`
}

type EventHandler struct {
	db       *gorm.DB
	engine   *attendance.Engine
	uploader upload.Uploader
	geocoder geocode.Geocoder
	mailer   mailer.Mailer
}

func NewEventHandler(conn *gorm.DB, engine *attendance.Engine, uploader upload.Uploader, geocoder geocode.Geocoder, mail mailer.Mailer) *EventHandler {
	return &EventHandler{
		db:       conn,
		engine:   engine,
		uploader: uploader,
		geocoder: geocoder,
		mailer:   mail,
	}
}

func (h *EventHandler) ListCategories(ctx *gin.Context) {
	var categories []models.Category

	if err := h.db.Find(&categories).Error; err != nil {
		slog.Error("failed to list categories", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	response := make([]types.CategoryResponse, 0, len(categories))

	for _, category := range categories {
		response = append(response, types.NewCategoryResponse(category))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *EventHandler) List(ctx *gin.Context) {
	var events []models.Event

	err := h.db.
		Preload("User").
		Preload("Category").
		Preload("Attendees").
		Find(&events).Error

	if err != nil {
		slog.Error("failed to list events", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	response := make([]types.EventResponse, 0, len(events))

	for _, event := range events {
		response = append(response, types.NewEventResponse(event, true))
	}

	ctx.JSON(http.StatusOK, response)
}

// Create validates the category and date, geocodes the venue, and inserts
// the event with the host as its first attendee.
func (h *EventHandler) Create(ctx *gin.Context) {
	user, err := middleware.CurrentUser(ctx)

	if err != nil {
		httperr.Render(ctx, httperr.Unauthenticated("User not authenticated"))
		return
	}

	var req CreateEventRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.RenderBinding(ctx, err)
		return
	}

	if req.Date.Before(time.Now()) {
		httperr.Render(ctx, httperr.Unprocessable("date", "The date must not be in the past"))
		return
	}

	var category models.Category

	if err := h.db.First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Render(ctx, httperr.Unprocessable("category_id", "The category does not exist"))
			return
		}

		slog.Error("failed to fetch category", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	lat, lng, err := h.geocoder.Latlng(ctx.Request.Context(), req.Venue)

	if err != nil {
		slog.Error("failed to geocode venue", "venue", req.Venue, "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	event := models.Event{
		Title:         req.Title,
		Description:   req.Description,
		AttendeeTotal: req.AttendeeTotal,
		Venue:         req.Venue,
		VenueLat:      lat,
		VenueLng:      lng,
		Date:          req.Date,
		UserID:        user.ID,
		CategoryID:    req.CategoryID,
		Attendees:     []models.User{*user},
	}

	if err := h.db.Omit("Attendees.*").Create(&event).Error; err != nil {
		slog.Error("failed to create event", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	event.Category = category

	ctx.JSON(http.StatusCreated, types.NewEventResponse(event, false))
}

func (h *EventHandler) Get(ctx *gin.Context) {
	event, err := h.fetchEvent(ctx.Param("id"))

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewEventResponse(*event, true))
}

func (h *EventHandler) Update(ctx *gin.Context) {
	_, event, err := h.fetchOwnEvent(ctx, "You can only update your own events")

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	var req UpdateEventRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.RenderBinding(ctx, err)
		return
	}

	if req.Date != nil {
		if req.Date.Before(time.Now()) {
			httperr.Render(ctx, httperr.Unprocessable("date", "The date must not be in the past"))
			return
		}
		event.Date = *req.Date
	}

	if req.Title != nil {
		event.Title = *req.Title
	}

	if req.Description != nil {
		event.Description = *req.Description
	}

	if req.AttendeeTotal != nil {
		event.AttendeeTotal = *req.AttendeeTotal
	}

	if req.CategoryID != nil {
		event.CategoryID = *req.CategoryID
	}

	if req.Venue != nil {
		lat, lng, err := h.geocoder.Latlng(ctx.Request.Context(), *req.Venue)

		if err != nil {
			slog.Error("failed to geocode venue", "venue", *req.Venue, "error", err)
			httperr.Render(ctx, httperr.Internal())
			return
		}

		event.Venue = *req.Venue
		event.VenueLat = lat
		event.VenueLng = lng
	}

	// An unknown category surfaces here as a foreign key violation rather
	// than an explicit existence query.
	if err := h.db.Omit("Attendees", "User", "Category").Save(event).Error; err != nil {
		if isForeignKeyViolation(err) {
			httperr.Render(ctx, httperr.Unprocessable("category_id", "The category does not exist"))
			return
		}

		slog.Error("failed to update event", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	updated, err := h.fetchEvent(ctx.Param("id"))

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewEventResponse(*updated, false))
}

func (h *EventHandler) Delete(ctx *gin.Context) {
	_, event, err := h.fetchOwnEvent(ctx, "You can only delete your own events")

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(event).Association("Attendees").Clear(); err != nil {
			return err
		}

		return tx.Unscoped().Delete(event).Error
	})

	if err != nil {
		slog.Error("failed to delete event", "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	ctx.Status(http.StatusNoContent)
}

// CoverImage validates the uploaded file, hands it to the object store,
// and persists the returned URL. Nothing is written when the upload fails.
func (h *EventHandler) CoverImage(ctx *gin.Context) {
	_, event, err := h.fetchOwnEvent(ctx, "You can only update your own events")

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	fileHeader, err := ctx.FormFile("cover_image")

	if err != nil {
		httperr.Render(ctx, httperr.BadRequest("A cover_image file is required"))
		return
	}

	file, err := fileHeader.Open()

	if err != nil {
		httperr.Render(ctx, httperr.BadRequest("Could not read the uploaded file"))
		return
	}
	defer file.Close()

	contents, err := io.ReadAll(io.LimitReader(file, upload.MaxImageBytes+1))

	if err != nil {
		httperr.Render(ctx, httperr.BadRequest("Could not read the uploaded file"))
		return
	}

	if err := upload.ValidateImage(contents); err != nil {
		httperr.Render(ctx, err)
		return
	}

	url, err := h.uploader.Upload(ctx.Request.Context(), contents)

	if err != nil {
		slog.Error("cover image upload failed", "event", event.ID, "error", err)
		httperr.Render(ctx, httperr.BadRequest("Could not upload image. Try again."))
		return
	}

	if err := h.db.Model(event).Update("cover_image", url).Error; err != nil {
		slog.Error("failed to persist cover image", "event", event.ID, "error", err)
		httperr.Render(ctx, httperr.Internal())
		return
	}

	ctx.JSON(http.StatusOK, types.NewEventResponse(*event, false))
}

func (h *EventHandler) Join(ctx *gin.Context) {
	user, err := middleware.CurrentUser(ctx)

	if err != nil {
		httperr.Render(ctx, httperr.Unauthenticated("User not authenticated"))
		return
	}

	eventID, err := parseID(ctx.Param("id"))

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	event, err := h.engine.Join(user, eventID)

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	h.notifyHost(event, user)

	ctx.JSON(http.StatusOK, types.NewEventResponse(*event, false))
}

func (h *EventHandler) Leave(ctx *gin.Context) {
	user, err := middleware.CurrentUser(ctx)

	if err != nil {
		httperr.Render(ctx, httperr.Unauthenticated("User not authenticated"))
		return
	}

	eventID, err := parseID(ctx.Param("id"))

	if err != nil {
		httperr.Render(ctx, err)
		return
	}

	if err := h.engine.Leave(user, eventID); err != nil {
		httperr.Render(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// notifyHost mails the host about a new attendee. Delivery is best-effort
// and never blocks the response.
func (h *EventHandler) notifyHost(event *models.Event, attendee *models.User) {
	if h.mailer == nil {
		return
	}

	go func() {
		data := map[string]string{
			"host_name":      event.User.FirstName,
			"attendee_name":  attendee.FirstName + " " + attendee.LastName,
			"attendee_email": attendee.Email,
			"event_title":    event.Title,
		}

		if err := h.mailer.Send(event.User.Email, "New attendee for "+event.Title, "attendee.html", data); err != nil {
			slog.Error("failed to send attendee notification", "event", event.ID, "error", err)
		}
	}()
}

func (h *EventHandler) fetchEvent(idParam string) (*models.Event, error) {
	id, err := parseID(idParam)

	if err != nil {
		return nil, err
	}

	var event models.Event

	err = h.db.
		Preload("User").
		Preload("Category").
		Preload("Attendees").
		First(&event, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound()
		}
		return nil, err
	}

	return &event, nil
}

func (h *EventHandler) fetchOwnEvent(ctx *gin.Context, message string) (*models.User, *models.Event, error) {
	user, err := middleware.CurrentUser(ctx)

	if err != nil {
		return nil, nil, httperr.Unauthenticated("User not authenticated")
	}

	event, err := h.fetchEvent(ctx.Param("id"))

	if err != nil {
		return nil, nil, err
	}

	if event.UserID != user.ID {
		return nil, nil, httperr.Forbidden(message)
	}

	return user, event, nil
}

func parseID(idParam string) (uint, error) {
	id, err := strconv.ParseUint(idParam, 10, 64)

	if err != nil {
		return 0, httperr.NotFound()
	}

	return uint(id), nil
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	return strings.Contains(strings.ToUpper(err.Error()), "FOREIGN KEY")
}
