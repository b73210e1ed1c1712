package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	appdb "github.com/devevents/devevents/db"
	"github.com/devevents/devevents/internal/attendance"
	"github.com/devevents/devevents/internal/auth"
	"github.com/devevents/devevents/internal/config"
	"github.com/devevents/devevents/internal/models"
	"github.com/devevents/devevents/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "password123"

type fakeGeocoder struct{}

func (fakeGeocoder) Latlng(_ context.Context, _ string) (float64, float64, error) {
	return 52.52, 13.405, nil
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(_ context.Context, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	return f.url, nil
}

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	sessions *auth.SessionManager
	uploader *fakeUploader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, appdb.MigrateDatabase(conn))
	require.NoError(t, appdb.SeedCategories(conn))

	cfg := config.Config{
		SecretKey:      "test-secret",
		AccessTokenTTL: time.Hour,
	}

	sessions := auth.NewSessionManager(conn, cfg.SecretKey, cfg.AccessTokenTTL)
	uploader := &fakeUploader{url: "https://res.cloudinary.com/devevents/cover.png"}

	r := router.New(router.Deps{
		Config:   cfg,
		DB:       conn,
		Sessions: sessions,
		Engine:   attendance.NewEngine(conn),
		Uploader: uploader,
		Geocoder: fakeGeocoder{},
	})

	return &testEnv{router: r, db: conn, sessions: sessions, uploader: uploader}
}

func (env *testEnv) createUser(t *testing.T, firstName, email string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		FirstName:    firstName,
		LastName:     "Tester",
		Email:        email,
		PasswordHash: string(hash),
	}
	require.NoError(t, env.db.Create(&user).Error)

	return user
}

func (env *testEnv) token(t *testing.T, user models.User) string {
	t.Helper()

	token, err := env.sessions.Issue(user.ID)
	require.NoError(t, err)

	return token
}

func (env *testEnv) request(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	return w
}

// requestWithHeader sends a request with a raw Authorization header value,
// including the empty string for no header at all.
func (env *testEnv) requestWithHeader(t *testing.T, method, path, header string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)

	if header != "" {
		req.Header.Set("Authorization", header)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body
}

func eventPayload(capacity int, categoryID uint) map[string]any {
	return map[string]any{
		"title":          "Gopher meetup",
		"description":    "Talks and pizza",
		"attendee_total": capacity,
		"venue":          "Community hall, Berlin",
		"date":           time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"category_id":    categoryID,
	}
}

// createEvent drives the real create endpoint and returns the new event id.
func (env *testEnv) createEvent(t *testing.T, token string, capacity int) uint {
	t.Helper()

	w := env.request(t, "POST", "/api/events", eventPayload(capacity, 1), token)
	require.Equal(t, 201, w.Code, "create event failed: %s", w.Body.String())

	body := decode(t, w)

	return uint(body["id"].(float64))
}

func multipartImage(t *testing.T, contents []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("cover_image", "cover.png")
	require.NoError(t, err)

	_, err = part.Write(contents)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}
