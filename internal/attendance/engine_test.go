package attendance

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/devevents/devevents/internal/httperr"
	"github.com/devevents/devevents/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = conn.AutoMigrate(&models.User{}, &models.AccessToken{}, &models.Category{}, &models.Event{})
	require.NoError(t, err)

	return conn
}

func createUser(t *testing.T, conn *gorm.DB, email string) models.User {
	t.Helper()

	user := models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "irrelevant",
	}
	require.NoError(t, conn.Create(&user).Error)

	return user
}

// createEvent inserts an event hosted by host with the host already in the
// attendee set, mirroring what event creation does.
func createEvent(t *testing.T, conn *gorm.DB, host models.User, capacity int) models.Event {
	t.Helper()

	category := models.Category{Name: "Music-" + uuid.NewString()}
	require.NoError(t, conn.Create(&category).Error)

	event := models.Event{
		Title:         "Gopher meetup",
		Description:   "Talks and pizza",
		AttendeeTotal: capacity,
		Venue:         "Community hall",
		VenueLat:      52.52,
		VenueLng:      13.405,
		Date:          time.Now().Add(48 * time.Hour),
		UserID:        host.ID,
		CategoryID:    category.ID,
		Attendees:     []models.User{host},
	}
	require.NoError(t, conn.Omit("Attendees.*").Create(&event).Error)

	return event
}

func attendeeIDs(t *testing.T, conn *gorm.DB, event models.Event) []uint {
	t.Helper()

	var attendees []models.User
	require.NoError(t, conn.Model(&event).Association("Attendees").Find(&attendees))

	ids := make([]uint, 0, len(attendees))
	for _, attendee := range attendees {
		ids = append(ids, attendee.ID)
	}

	return ids
}

func assertForbidden(t *testing.T, err error, message string) {
	t.Helper()

	var apiErr *httperr.Error
	require.True(t, errors.As(err, &apiErr), "expected an httperr.Error, got %v", err)
	assert.Equal(t, 403, apiErr.Status)
	assert.Equal(t, message, apiErr.Message)
}

func TestJoinAddsAttendee(t *testing.T) {
	conn := newTestDB(t)
	engine := NewEngine(conn)

	host := createUser(t, conn, "host@example.com")
	guest := createUser(t, conn, "guest@example.com")
	event := createEvent(t, conn, host, 3)

	joined, err := engine.Join(&guest, event.ID)
	require.NoError(t, err)

	assert.Len(t, joined.Attendees, 2)
	assert.Contains(t, attendeeIDs(t, conn, event), guest.ID)
	assert.Contains(t, attendeeIDs(t, conn, event), host.ID)
}

func TestJoinRejectsHost(t *testing.T) {
	conn := newTestDB(t)
	engine := NewEngine(conn)

	host := createUser(t, conn, "host@example.com")
	event := createEvent(t, conn, host, 3)

	_, err := engine.Join(&host, event.ID)
	assertForbidden(t, err, "You are the event host. So you are already an attendee")
}

func TestJoinRejectsWhenFull(t *testing.T) {
	conn := newTestDB(t)
	engine := NewEngine(conn)

	host := createUser(t, conn, "a@example.com")
	second := createUser(t, conn, "b@example.com")
	third := createUser(t, conn, "c@example.com")
	event := createEvent(t, conn, host, 1)

	_, err := engine.Join(&second, event.ID)
	require.NoError(t, err)

	_, err = engine.Join(&third, event.ID)
	assertForbidden(t, err, "Event is already full")

	// The capacity invariant holds: non-host attendees never exceed the
	// advertised total.
	ids := attendeeIDs(t, conn, event)
	assert.LessOrEqual(t, len(ids)-1, event.AttendeeTotal)
}

func TestJoinRejectsDuplicate(t *testing.T) {
	conn := newTestDB(t)
	engine := NewEngine(conn)

	host := createUser(t, conn, "host@example.com")
	guest := createUser(t, conn, "guest@example.com")
	event := createEvent(t, conn, host, 5)

	_, err := engine.Join(&guest, event.ID)
	require.NoError(t, err)

	_, err = engine.Join(&guest, event.ID)
	assertForbidden(t, err, "You are already an attendee to this event")

	assert.Len(t, attendeeIDs(t, conn, event), 2)
}

func TestJoinUnknownEvent(t *testing.T) {
	conn := newTestDB(t)
	engine := NewEngine(conn)

	guest := createUser(t, conn, "guest@example.com")

	_, err := engine.Join(&guest, 9999)

	var apiErr *httperr.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.Status)
}

func TestLeaveRejectsHost(t *testing.T) {
	conn := newTestDB(t)
	engine := NewEngine(conn)

	host := createUser(t, conn, "host@example.com")
	event := createEvent(t, conn, host, 3)

	err := engine.Leave(&host, event.ID)
	assertForbidden(t, err, "You are the event host. So you cannot unattend")

	// No leave path removes the host.
	assert.Contains(t, attendeeIDs(t, conn, event), host.ID)
}

func TestLeaveRejectsNonAttendee(t *testing.T) {
	conn := newTestDB(t)
	engine := NewEngine(conn)

	host := createUser(t, conn, "host@example.com")
	stranger := createUser(t, conn, "stranger@example.com")
	event := createEvent(t, conn, host, 3)

	err := engine.Leave(&stranger, event.ID)
	assertForbidden(t, err, "You are not an attendee to this event")
}

func TestJoinLeaveNetEffect(t *testing.T) {
	conn := newTestDB(t)
	engine := NewEngine(conn)

	host := createUser(t, conn, "host@example.com")
	guest := createUser(t, conn, "guest@example.com")
	event := createEvent(t, conn, host, 2)

	_, err := engine.Join(&guest, event.ID)
	require.NoError(t, err)
	assert.Contains(t, attendeeIDs(t, conn, event), guest.ID)

	require.NoError(t, engine.Leave(&guest, event.ID))
	assert.NotContains(t, attendeeIDs(t, conn, event), guest.ID)

	// Leaving frees the slot again.
	_, err = engine.Join(&guest, event.ID)
	require.NoError(t, err)
	assert.Contains(t, attendeeIDs(t, conn, event), guest.ID)
}

func TestCapacityInvariantAcrossSequence(t *testing.T) {
	conn := newTestDB(t)
	engine := NewEngine(conn)

	host := createUser(t, conn, "host@example.com")
	event := createEvent(t, conn, host, 2)

	guests := []models.User{
		createUser(t, conn, "g1@example.com"),
		createUser(t, conn, "g2@example.com"),
		createUser(t, conn, "g3@example.com"),
	}

	for i := range guests {
		_, err := engine.Join(&guests[i], event.ID)

		ids := attendeeIDs(t, conn, event)
		assert.LessOrEqual(t, len(ids)-1, event.AttendeeTotal)

		if i < event.AttendeeTotal {
			assert.NoError(t, err)
		} else {
			assertForbidden(t, err, "Event is already full")
		}
	}
}
