package handler

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamFeed(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.onboardedUser(t, "host@example.com", "Host Person", "hostperson")

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/activities/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))

	env.createActivity(t, token, "Sunrise run", time.Now().Add(time.Hour))

	found := make(chan bool, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if strings.Contains(scanner.Text(), "activity.created") {
				found <- true
				return
			}
		}
		found <- false
	}()

	select {
	case ok := <-found:
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no activity.created event on the feed")
	}
}

func TestStreamQuietTopicSendsHeaders(t *testing.T) {
	env := newTestEnv(t)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := http.Get(srv.URL + "/api/v1/activities/some-id/events")
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		defer r.resp.Body.Close()
		assert.Equal(t, http.StatusOK, r.resp.StatusCode)
		assert.True(t, strings.HasPrefix(r.resp.Header.Get("Content-Type"), "text/event-stream"))
		assert.Equal(t, "no-cache", r.resp.Header.Get("Cache-Control"))
	case <-time.After(2 * time.Second):
		t.Fatal("no response headers on a quiet topic")
	}
}

func TestStreamWithoutHub(t *testing.T) {
	env := newTestEnv(t)
	h := *env.handler
	h.Hub = nil
	router := NewRouter(&h, secret)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities/events", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
