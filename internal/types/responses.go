package types

import (
	"time"

	"github.com/devevents/devevents/internal/models"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type UserResponse struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type EventResponse struct {
	ID            uint             `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	AttendeeTotal int              `json:"attendee_total"`
	CoverImage    string           `json:"cover_image"`
	Venue         string           `json:"venue"`
	VenueLat      float64          `json:"venue_lat"`
	VenueLng      float64          `json:"venue_lng"`
	Date          time.Time        `json:"date"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	User          *UserSummary     `json:"user,omitempty"`
	Category      CategoryResponse `json:"category"`
	Attendees     []UserSummary    `json:"attendees"`
}

type UserEventsResponse struct {
	UserSummary
	Events []EventResponse `json:"events"`
}

func NewUserSummary(user models.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}
}

func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func NewCategoryResponse(category models.Category) CategoryResponse {
	return CategoryResponse{ID: category.ID, Name: category.Name}
}

// NewEventResponse maps an event. withHost controls whether the host user
// appears in the payload; list and detail views include it, mutation
// responses do not.
func NewEventResponse(event models.Event, withHost bool) EventResponse {
	attendees := make([]UserSummary, 0, len(event.Attendees))

	for _, attendee := range event.Attendees {
		attendees = append(attendees, NewUserSummary(attendee))
	}

	response := EventResponse{
		ID:            event.ID,
		Title:         event.Title,
		Description:   event.Description,
		AttendeeTotal: event.AttendeeTotal,
		CoverImage:    event.CoverImage,
		Venue:         event.Venue,
		VenueLat:      event.VenueLat,
		VenueLng:      event.VenueLng,
		Date:          event.Date,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
		Category:      NewCategoryResponse(event.Category),
		Attendees:     attendees,
	}

	if withHost {
		host := NewUserSummary(event.User)
		response.User = &host
	}

	return response
}
