package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/clock"
	"github.com/preetsinghmakkar/mentorly/internal/config"
	"github.com/preetsinghmakkar/mentorly/internal/dtos"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/preetsinghmakkar/mentorly/internal/repositories/memory"
	"github.com/preetsinghmakkar/mentorly/internal/services"
	"github.com/preetsinghmakkar/mentorly/internal/utils"
	ws "github.com/preetsinghmakkar/mentorly/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type apiFixture struct {
	router   *gin.Engine
	clock    *clock.Mock
	student  models.User
	reviewer models.User
	outsider models.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	f := &apiFixture{
		clock:    clock.NewMock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
		student:  models.User{ID: uuid.New(), FullName: "Sam Student", Email: "sam@example.com", Role: models.UserRoleStudent},
		reviewer: models.User{ID: uuid.New(), FullName: "Rae Reviewer", Email: "rae@example.com", Role: models.UserRoleReviewer},
		outsider: models.User{ID: uuid.New(), FullName: "Otto", Email: "otto@example.com", Role: models.UserRoleStudent},
	}
	for _, u := range []models.User{f.student, f.reviewer, f.outsider} {
		store.AddUser(u)
	}

	hub := ws.NewHub(zerolog.Nop())
	service := services.NewMentorSessionService(services.Deps{
		Sessions:  store,
		Messages:  store,
		Reports:   store,
		Directory: store,
		Courses:   store,
		Notifier:  hub,
		Publisher: hub,
		Clock:     f.clock,
		Logger:    zerolog.Nop(),
	})

	cfg := &config.Config{JWTSecret: testSecret, Environment: "test"}
	f.router = NewRouter(cfg, zerolog.Nop(), service, hub, nil)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := utils.GenerateAccessToken(user.ID, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (f *apiFixture) book(t *testing.T) dtos.SessionResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/sessions", &f.student, map[string]interface{}{
		"reviewer_id":      f.reviewer.ID.String(),
		"session_date":     "2026-03-10",
		"session_time":     "12:30",
		"timezone":         "UTC",
		"duration_minutes": 60,
		"notes":            "help with channels",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dtos.SessionResponse](t, rec)
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	session := f.book(t)
	assert.Equal(t, "pending", session.Status)
	assert.False(t, session.ChatEnabled)

	base := "/api/sessions/" + session.ID.String()

	rec := f.do(t, http.MethodPost, base+"/accept", &f.student, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "unauthorized", decode[dtos.ErrorResponse](t, rec).Code)

	rec = f.do(t, http.MethodPost, base+"/accept", &f.reviewer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decode[dtos.SessionResponse](t, rec)
	assert.Equal(t, "accepted", accepted.Status)
	assert.True(t, accepted.ChatEnabled)
	require.NotNil(t, accepted.ChatExpiresAt)
	assert.Equal(t, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC), accepted.ChatExpiresAt.UTC())

	rec = f.do(t, http.MethodPost, base+"/reject", &f.reviewer, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decode[dtos.ErrorResponse](t, rec).Code)

	rec = f.do(t, http.MethodPost, base+"/messages", &f.student, map[string]string{"body": "  hi there  "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "hi there", decode[dtos.ChatMessageResponse](t, rec).Body)

	rec = f.do(t, http.MethodPost, base+"/report", &f.reviewer, map[string]interface{}{
		"progress_assessment": "good",
		"key_topics":          []string{"channels"},
		"recommendations":     "practice",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decode[dtos.ErrorResponse](t, rec).Code)

	f.clock.Set(time.Date(2026, 3, 10, 14, 1, 0, 0, time.UTC))

	rec = f.do(t, http.MethodPost, base+"/messages", &f.reviewer, map[string]string{"body": "still there?"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "chat_closed", decode[dtos.ErrorResponse](t, rec).Code)

	rec = f.do(t, http.MethodGet, base, &f.student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[dtos.SessionResponse](t, rec)
	assert.False(t, view.ChatEnabled)
	assert.False(t, view.ChatOpen)
	assert.Equal(t, "student", view.Role)
	assert.Equal(t, "Rae Reviewer", view.CounterpartName)

	rec = f.do(t, http.MethodPost, base+"/report", &f.reviewer, map[string]interface{}{
		"progress_assessment": "",
		"key_topics":          []string{},
		"recommendations":     "practice",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	verr := decode[dtos.ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", verr.Code)
	assert.NotEmpty(t, verr.Fields)

	report := map[string]interface{}{
		"progress_assessment": "Solid grasp of channels",
		"key_topics":          []string{"channels", "select"},
		"recommendations":     "Build a worker pool",
		"overall_rating":      4,
	}
	rec = f.do(t, http.MethodPost, base+"/report", &f.reviewer, report)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 4, decode[dtos.ReportResponse](t, rec).OverallRating)

	rec = f.do(t, http.MethodPost, base+"/report", &f.reviewer, report)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "report_already_exists", decode[dtos.ErrorResponse](t, rec).Code)

	rec = f.do(t, http.MethodGet, base+"/report", &f.student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"channels", "select"}, decode[dtos.ReportResponse](t, rec).KeyTopics)

	rec = f.do(t, http.MethodGet, base+"/messages", &f.student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decode[struct {
		Messages []dtos.ChatMessageResponse `json:"messages"`
	}](t, rec).Messages
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].MessageType)
	assert.Equal(t, "hi there", messages[1].Body)

	rec = f.do(t, http.MethodPost, base+"/messages/read", &f.reviewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[dtos.MarkReadResponse](t, rec).Updated) // system notice and the student message

	rec = f.do(t, http.MethodGet, "/api/sessions/student", &f.student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lists := decode[dtos.SessionListResponse](t, rec)
	require.Len(t, lists.Completed, 1)
	assert.Equal(t, "Solid grasp of channels", lists.Completed[0].SessionSummary)
	assert.Empty(t, lists.Pending)
}

func TestRequestErrors(t *testing.T) {
	f := newAPIFixture(t)
	session := f.book(t)

	tests := []struct {
		name     string
		method   string
		path     string
		user     *models.User
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/api/sessions/student",
			wantCode: http.StatusUnauthorized,
			wantErr:  "unauthenticated",
		},
		{
			name:     "malformed session id",
			method:   http.MethodGet,
			path:     "/api/sessions/not-a-uuid",
			user:     &f.student,
			wantCode: http.StatusBadRequest,
			wantErr:  "bad_request",
		},
		{
			name:     "unknown session",
			method:   http.MethodGet,
			path:     "/api/sessions/" + uuid.NewString(),
			user:     &f.student,
			wantCode: http.StatusNotFound,
			wantErr:  "not_found",
		},
		{
			name:     "outsider reads session",
			method:   http.MethodGet,
			path:     "/api/sessions/" + session.ID.String(),
			user:     &f.outsider,
			wantCode: http.StatusForbidden,
			wantErr:  "unauthorized",
		},
		{
			name:   "booking in the past",
			method: http.MethodPost,
			path:   "/api/sessions",
			user:   &f.student,
			body: map[string]interface{}{
				"reviewer_id":  f.reviewer.ID.String(),
				"session_date": "2026-03-09",
				"session_time": "10:00",
				"timezone":     "UTC",
			},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "validation_error",
		},
		{
			name:   "booking with malformed reviewer id",
			method: http.MethodPost,
			path:   "/api/sessions",
			user:   &f.student,
			body: map[string]interface{}{
				"reviewer_id":  "nope",
				"session_date": "2026-03-12",
				"session_time": "10:00",
				"timezone":     "UTC",
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "bad_request",
		},
		{
			name:     "message before accept",
			method:   http.MethodPost,
			path:     "/api/sessions/" + session.ID.String() + "/messages",
			user:     &f.student,
			body:     map[string]string{"body": "hello?"},
			wantCode: http.StatusConflict,
			wantErr:  "chat_closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, decode[dtos.ErrorResponse](t, rec).Code)
		})
	}
}

func TestCorsConfig(t *testing.T) {
	open := corsConfig(nil)
	assert.True(t, open.AllowAllOrigins)
	assert.False(t, open.AllowCredentials)

	restricted := corsConfig([]string{"https://app.example"})
	assert.False(t, restricted.AllowAllOrigins)
	assert.Equal(t, []string{"https://app.example"}, restricted.AllowOrigins)
	assert.True(t, restricted.AllowCredentials)
}

func TestNewWithMemoryStore(t *testing.T) {
	cfg := &config.Config{
		StoreDriver: config.StoreDriverMemory,
		JWTSecret:   testSecret,
		Environment: "test",
	}
	a, err := New(t.Context(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.sweeper)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
