package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"moodcircle/internal/insights"
	mw "moodcircle/internal/middleware"
	"moodcircle/internal/models"
	"moodcircle/internal/services"
	"moodcircle/internal/store/memstore"
)

type fakeGateway struct {
	calls atomic.Int32

	mu  sync.Mutex
	err error
}

func (f *fakeGateway) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeGateway) failure() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeGateway) Insights(_ context.Context, content string) (*insights.Insights, error) {
	f.calls.Add(1)
	if err := f.failure(); err != nil {
		return nil, err
	}
	return &insights.Insights{Mood: "happy", Insights: []string{"echo: " + content}, Suggestions: []string{}}, nil
}

func (f *fakeGateway) Recommendations(_ context.Context, entries []string) (*insights.Recommendations, error) {
	f.calls.Add(1)
	if err := f.failure(); err != nil {
		return nil, err
	}
	return &insights.Recommendations{Topics: entries, Prompts: []string{"p"}}, nil
}

func (f *fakeGateway) Chat(_ context.Context, content string) (string, error) {
	f.calls.Add(1)
	if err := f.failure(); err != nil {
		return "", err
	}
	return "you said " + content, nil
}

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) (*httptest.Server, *fakeGateway) {
	t.Helper()
	st := memstore.New()
	logger := zap.NewNop()
	gw := &fakeGateway{}
	users := services.NewUserService(st, logger)
	srv := httptest.NewServer(NewRouter(Deps{
		Store:      st,
		Users:      users,
		Journals:   services.NewJournalService(st, nil, logger),
		Circles:    services.NewCircleService(st, logger),
		Gateway:    gw,
		Auth:       mw.NewAuthMiddleware(testSecret, users),
		Logger:     logger,
		SessionTTL: time.Hour,
	}))
	t.Cleanup(srv.Close)
	return srv, gw
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
	user sessionUser
}

type sessionUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func anonymous(t *testing.T, srv *httptest.Server) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func registered(t *testing.T, srv *httptest.Server, username string) *client {
	t.Helper()
	c := anonymous(t, srv)
	status, body := c.do(http.MethodPost, "/api/register", map[string]string{"username": username, "password": "pw-" + username})
	require.Equal(t, http.StatusCreated, status, string(body))
	require.NoError(t, json.Unmarshal(body, &c.user))
	return c
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func (c *client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

func (c *client) decode(method, path string, body any, wantStatus int, v any) {
	c.t.Helper()
	status, out := c.do(method, path, body)
	require.Equal(c.t, wantStatus, status, string(out))
	if v != nil {
		require.NoError(c.t, json.Unmarshal(out, v))
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	srv, _ := newTestServer(t)
	anon := anonymous(t, srv)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/user"},
		{http.MethodGet, "/api/journals"},
		{http.MethodGet, "/api/journals/my"},
		{http.MethodGet, "/api/journals/stats"},
		{http.MethodPost, "/api/journals"},
		{http.MethodGet, "/api/journals/1"},
		{http.MethodPatch, "/api/journals/1/share"},
		{http.MethodPost, "/api/circles"},
		{http.MethodGet, "/api/circles"},
		{http.MethodGet, "/api/circles/1/members"},
		{http.MethodPost, "/api/circles/1/members"},
		{http.MethodDelete, "/api/circles/1/members/2"},
		{http.MethodPost, "/api/insights"},
		{http.MethodPost, "/api/recommendations"},
		{http.MethodPost, "/api/chat"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			status, body := anon.do(rt.method, rt.path, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Empty(t, body)
		})
	}
}

func TestAuthFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := registered(t, srv, "alice")

	var me sessionUser
	alice.decode(http.MethodGet, "/api/user", nil, http.StatusOK, &me)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, alice.user.ID, me.ID)

	status, body := anonymous(t, srv).do(http.MethodPost, "/api/register", map[string]string{"username": "alice", "password": "x"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "Username already exists")

	status, _ = anonymous(t, srv).do(http.MethodPost, "/api/register", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = anonymous(t, srv).do(http.MethodPost, "/api/register", map[string]string{"username": "carol", "password": strings.Repeat("p", 100)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "password")

	status, _ = anonymous(t, srv).do(http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	fresh := anonymous(t, srv)
	fresh.decode(http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "pw-alice"}, http.StatusOK, &me)
	assert.Equal(t, alice.user.ID, me.ID)
	fresh.decode(http.MethodGet, "/api/user", nil, http.StatusOK, nil)

	fresh.decode(http.MethodPost, "/api/logout", nil, http.StatusOK, nil)
	status, _ = fresh.do(http.MethodGet, "/api/user", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func sessionToken(t *testing.T, srv *httptest.Server, c *client) string {
	t.Helper()
	for _, ck := range c.http.Jar.Cookies(mustURL(t, srv.URL)) {
		if ck.Name == mw.SessionCookie {
			return ck.Value
		}
	}
	t.Fatal("no session cookie")
	return ""
}

func bearerStatus(t *testing.T, method, url, token string) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestBearerTokenAccepted(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := registered(t, srv, "alice")

	token := sessionToken(t, srv, alice)
	assert.Equal(t, http.StatusOK, bearerStatus(t, http.MethodGet, srv.URL+"/api/user", token))
}

func TestSessionDoesNotSurviveStoreReset(t *testing.T) {
	before, _ := newTestServer(t)
	alice := registered(t, before, "alice")
	oldToken := sessionToken(t, before, alice)

	// Same secret, empty store: ids start over.
	after, _ := newTestServer(t)
	bob := registered(t, after, "bob")
	require.Equal(t, alice.user.ID, bob.user.ID)

	var journal models.Journal
	bob.decode(http.MethodPost, "/api/journals", map[string]any{
		"title": "private", "content": "mine only", "category": "personal",
	}, http.StatusCreated, &journal)

	assert.Equal(t, http.StatusUnauthorized, bearerStatus(t, http.MethodGet, fmt.Sprintf("%s/api/journals/%d", after.URL, journal.ID), oldToken))
	assert.Equal(t, http.StatusUnauthorized, bearerStatus(t, http.MethodGet, after.URL+"/api/user", oldToken))
	assert.Equal(t, http.StatusOK, bearerStatus(t, http.MethodGet, after.URL+"/api/user", sessionToken(t, after, bob)))
}

func TestSessionForUnknownUserRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _, err := mw.NewAuthMiddleware(testSecret, nil).IssueToken(models.User{ID: 42, Username: "ghost"}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, bearerStatus(t, http.MethodPost, srv.URL+"/api/circles", token))
	assert.Equal(t, http.StatusUnauthorized, bearerStatus(t, http.MethodGet, srv.URL+"/api/journals", token))
}

func TestFamilyCircleSharing(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := registered(t, srv, "alice")
	bob := registered(t, srv, "bob")

	var family models.Circle
	alice.decode(http.MethodPost, "/api/circles", map[string]string{"name": "Family"}, http.StatusCreated, &family)

	var members []models.CircleMember
	alice.decode(http.MethodGet, fmt.Sprintf("/api/circles/%d/members", family.ID), nil, http.StatusOK, &members)
	require.Len(t, members, 1)
	assert.Equal(t, models.RoleAdmin, members[0].Role)
	assert.Equal(t, alice.user.ID, members[0].UserID)

	var trip models.Journal
	alice.decode(http.MethodPost, "/api/journals", map[string]any{
		"title":              "Trip",
		"content":            "We drove to the coast.",
		"category":           "travel",
		"mood":               "joyful",
		"isPublic":           false,
		"sharedWithCircleId": family.ID,
	}, http.StatusCreated, &trip)
	assert.Equal(t, "#FFD700", trip.MoodColor)

	path := fmt.Sprintf("/api/journals/%d", trip.ID)

	status, _ := bob.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusForbidden, status)

	alice.decode(http.MethodPost, fmt.Sprintf("/api/circles/%d/members", family.ID),
		map[string]string{"username": "bob"}, http.StatusCreated, nil)

	var got models.Journal
	bob.decode(http.MethodGet, path, nil, http.StatusOK, &got)
	assert.Equal(t, "Trip", got.Title)
	assert.Equal(t, "We drove to the coast.", got.Content)

	var visible []models.Journal
	bob.decode(http.MethodGet, "/api/journals", nil, http.StatusOK, &visible)
	assert.Len(t, visible, 1)

	status, _ = bob.do(http.MethodDelete, fmt.Sprintf("/api/circles/%d/members/%d", family.ID, bob.user.ID), nil)
	assert.Equal(t, http.StatusForbidden, status, "only the owner removes members")

	status, _ = alice.do(http.MethodDelete, fmt.Sprintf("/api/circles/%d/members/%d", family.ID, bob.user.ID), nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = bob.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusForbidden, status)

	bob.decode(http.MethodGet, "/api/journals", nil, http.StatusOK, &visible)
	assert.Empty(t, visible)
}

func TestJournalEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := registered(t, srv, "alice")
	bob := registered(t, srv, "bob")

	var work models.Circle
	bob.decode(http.MethodPost, "/api/circles", map[string]string{"name": "Work"}, http.StatusCreated, &work)

	t.Run("validation", func(t *testing.T) {
		status, body := alice.do(http.MethodPost, "/api/journals", map[string]any{"content": "c", "category": "x"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, string(body), "title is required")

		status, _ = alice.do(http.MethodPost, "/api/journals", map[string]any{"title": "t", "content": "c", "category": "x", "mood": "meh"})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("sharing with a foreign circle", func(t *testing.T) {
		status, body := alice.do(http.MethodPost, "/api/journals", map[string]any{
			"title": "t", "content": "c", "category": "x", "sharedWithCircleId": work.ID,
		})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Contains(t, string(body), "You are not a member of this circle")
	})

	var j models.Journal
	alice.decode(http.MethodPost, "/api/journals", map[string]any{"title": "t", "content": "c", "category": "x"},
		http.StatusCreated, &j)
	assert.Equal(t, models.MoodNeutral, j.Mood)
	assert.False(t, j.IsPublic)

	t.Run("get", func(t *testing.T) {
		status, body := alice.do(http.MethodGet, "/api/journals/9999", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Empty(t, body)

		status, _ = alice.do(http.MethodGet, "/api/journals/abc", nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = bob.do(http.MethodGet, fmt.Sprintf("/api/journals/%d", j.ID), nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("share", func(t *testing.T) {
		path := fmt.Sprintf("/api/journals/%d/share", j.ID)

		status, _ := bob.do(http.MethodPatch, path, map[string]any{"circleId": work.ID})
		assert.Equal(t, http.StatusForbidden, status, "non-owner")

		status, _ = alice.do(http.MethodPatch, path, map[string]any{"circleId": work.ID})
		assert.Equal(t, http.StatusForbidden, status, "owner outside circle")

		status, _ = alice.do(http.MethodPatch, "/api/journals/9999/share", map[string]any{"circleId": nil})
		assert.Equal(t, http.StatusNotFound, status)

		var mine models.Circle
		alice.decode(http.MethodPost, "/api/circles", map[string]string{"name": "Mine"}, http.StatusCreated, &mine)

		var updated models.Journal
		alice.decode(http.MethodPatch, path, map[string]any{"circleId": mine.ID}, http.StatusOK, &updated)
		require.NotNil(t, updated.SharedWithCircleID)
		assert.Equal(t, mine.ID, *updated.SharedWithCircleID)

		alice.decode(http.MethodPatch, path, map[string]any{"circleId": nil}, http.StatusOK, &updated)
		assert.Nil(t, updated.SharedWithCircleID)
	})

	t.Run("my journals", func(t *testing.T) {
		var mine []models.Journal
		alice.decode(http.MethodGet, "/api/journals/my", nil, http.StatusOK, &mine)
		assert.Len(t, mine, 1)

		bob.decode(http.MethodGet, "/api/journals/my", nil, http.StatusOK, &mine)
		assert.Empty(t, mine)
	})

	t.Run("stats", func(t *testing.T) {
		var summary services.MoodSummary
		alice.decode(http.MethodGet, "/api/journals/stats", nil, http.StatusOK, &summary)
		assert.Len(t, summary.Days, services.DefaultStatsDays)
		assert.Equal(t, 1, summary.Counts[models.MoodNeutral])

		alice.decode(http.MethodGet, "/api/journals/stats?days=30", nil, http.StatusOK, &summary)
		assert.Len(t, summary.Days, 30)

		status, _ := alice.do(http.MethodGet, "/api/journals/stats?days=365", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		status, _ = alice.do(http.MethodGet, "/api/journals/stats?days=abc", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestCircleEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := registered(t, srv, "alice")
	bob := registered(t, srv, "bob")
	registered(t, srv, "carol")

	status, _ := alice.do(http.MethodPost, "/api/circles", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, status)

	var c models.Circle
	alice.decode(http.MethodPost, "/api/circles", map[string]string{"name": "Book club", "description": "monthly"}, http.StatusCreated, &c)
	assert.Equal(t, alice.user.ID, c.OwnerID)
	members := fmt.Sprintf("/api/circles/%d/members", c.ID)

	status, _ = bob.do(http.MethodGet, members, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = alice.do(http.MethodGet, "/api/circles/9999/members", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = alice.do(http.MethodPost, members, map[string]string{"username": "nobody"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = alice.do(http.MethodPost, members, map[string]string{"username": "bob", "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, status)

	var added models.CircleMember
	alice.decode(http.MethodPost, members, map[string]string{"username": "bob", "role": "admin"}, http.StatusCreated, &added)
	assert.Equal(t, models.RoleAdmin, added.Role)
	assert.Equal(t, bob.user.ID, added.UserID)

	status, _ = alice.do(http.MethodPost, members, map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = bob.do(http.MethodPost, members, map[string]string{"username": "carol"})
	assert.Equal(t, http.StatusForbidden, status, "admin role does not grant management")

	var list []models.CircleMember
	bob.decode(http.MethodGet, members, nil, http.StatusOK, &list)
	assert.Len(t, list, 2)

	var circles []models.Circle
	bob.decode(http.MethodGet, "/api/circles", nil, http.StatusOK, &circles)
	require.Len(t, circles, 1)
	assert.Equal(t, "Book club", circles[0].Name)

	status, _ = alice.do(http.MethodDelete, fmt.Sprintf("%s/%d", members, alice.user.ID), nil)
	assert.Equal(t, http.StatusBadRequest, status, "owner cannot be removed")

	status, _ = alice.do(http.MethodDelete, fmt.Sprintf("%s/%d", members, 9999), nil)
	assert.Equal(t, http.StatusNoContent, status, "removing a non-member is a no-op")

	alice.decode(http.MethodGet, members, nil, http.StatusOK, &list)
	assert.Len(t, list, 2)
}

func TestAnalyzerEndpoints(t *testing.T) {
	srv, gw := newTestServer(t)
	alice := registered(t, srv, "alice")

	t.Run("empty content is rejected before the gateway", func(t *testing.T) {
		status, body := alice.do(http.MethodPost, "/api/insights", map[string]string{"content": ""})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, string(body), "Content is required")

		status, _ = alice.do(http.MethodPost, "/api/recommendations", map[string]any{"entries": []string{}})
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = alice.do(http.MethodPost, "/api/chat", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, status)

		assert.Zero(t, gw.calls.Load())
	})

	t.Run("success", func(t *testing.T) {
		var out insights.Insights
		alice.decode(http.MethodPost, "/api/insights", map[string]string{"content": "hello"}, http.StatusOK, &out)
		assert.Equal(t, "happy", out.Mood)
		assert.Equal(t, []string{"echo: hello"}, out.Insights)

		var recs insights.Recommendations
		alice.decode(http.MethodPost, "/api/recommendations", map[string]any{"entries": []string{"a"}}, http.StatusOK, &recs)
		assert.Equal(t, []string{"a"}, recs.Topics)

		var chat map[string]string
		alice.decode(http.MethodPost, "/api/chat", map[string]string{"content": "hi"}, http.StatusOK, &chat)
		assert.Equal(t, "you said hi", chat["response"])
	})

	t.Run("gateway failure", func(t *testing.T) {
		gw.fail(errors.New("failed to get journal insights: upstream down"))
		defer gw.fail(nil)

		status, body := alice.do(http.MethodPost, "/api/insights", map[string]string{"content": "hello"})
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.JSONEq(t, `{"message":"failed to get journal insights: upstream down"}`, string(body))
	})
}

func TestHealthzAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	c := anonymous(t, srv)

	status, body := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	status, body = c.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "moodcircle_http_requests_total")
}
