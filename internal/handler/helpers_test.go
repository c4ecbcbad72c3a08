package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"trailmate/backend/internal/activity"
	"trailmate/backend/internal/auth"
	"trailmate/backend/internal/hub"
	"trailmate/backend/internal/memstore"
	"trailmate/backend/internal/onboarding"
	"trailmate/backend/internal/profile"
	"trailmate/backend/internal/storage"
)

var secret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

type captureMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *captureMailer) SendConfirmation(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = map[string]string{}
	}
	m.links[email] = link
	return nil
}

func (m *captureMailer) token(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[email]
	require.True(t, ok, "no confirmation mailed to %s", email)
	_, token, found := strings.Cut(link, "token=")
	require.True(t, found)
	return token
}

type testEnv struct {
	store   *memstore.Store
	hub     *hub.Hub
	mailer  *captureMailer
	handler *Handler
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	hb := hub.NewHub()
	mailer := &captureMailer{}

	h := &Handler{
		Auth:           auth.NewService(store, mailer, secret, time.Hour, "http://localhost:8080"),
		Onboarding:     onboarding.NewService(store),
		Profiles:       profile.NewService(store),
		Activities:     activity.NewService(store, hb),
		Avatars:        storage.NewBucket(afero.NewMemMapFs()),
		Hub:            hb,
		AvatarMaxBytes: 1 << 20,
	}
	return &testEnv{store: store, hub: hb, mailer: mailer, handler: h, router: NewRouter(h, secret)}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *testEnv) signUp(t *testing.T, email string) (token, userID string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": email, "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[SessionResponse](t, rec)
	return session.AccessToken, session.User.ID
}

func (e *testEnv) submit(t *testing.T, token string, step onboarding.Step, fields gin.H) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/v1/onboarding/"+string(step), token, fields)
}

// onboardedUser signs up, confirms the email and walks every wizard step.
func (e *testEnv) onboardedUser(t *testing.T, email, fullName, username string) (token, userID string) {
	t.Helper()
	token, userID = e.signUp(t, email)

	rec := e.do(t, http.MethodGet, "/api/v1/auth/confirm?token="+e.mailer.token(t, email), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = e.do(t, http.MethodPost, "/api/v1/onboarding/verify-email", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	steps := []struct {
		step   onboarding.Step
		fields gin.H
	}{
		{onboarding.StepUserType, gin.H{"is_teacher": false}},
		{onboarding.StepBasicInfo, gin.H{"full_name": fullName, "username": username}},
		{onboarding.StepLocation, gin.H{"city": "Grenoble", "country": "France"}},
		{onboarding.StepBio, gin.H{"bio": "Early mornings on the trail."}},
		{onboarding.StepNotifications, gin.H{"push_opt_in": true}},
	}
	for _, s := range steps {
		rec := e.submit(t, token, s.step, s.fields)
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", s.step, rec.Body.String())
	}
	return token, userID
}

func (e *testEnv) createActivity(t *testing.T, token, name string, at time.Time) ActivityResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/activities", token, gin.H{
		"name":  name,
		"sport": "trail running",
		"time":  at.UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[ActivityResponse](t, rec)
}
