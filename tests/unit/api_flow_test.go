package unit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskhive/taskhive-backend/internal/auth"
	"github.com/taskhive/taskhive-backend/internal/bootstrap"
	"github.com/taskhive/taskhive-backend/internal/stats"
	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/internal/store/storetest"
)

// newTestRouter assembles the full router against the in-memory table and a
// miniredis-backed statistics cache.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := storetest.New("TestTable")

	var mu sync.Mutex
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	st := store.New(fake, "TestTable", zap.NewNop(), store.WithClock(clock))

	return bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "taskhive-api-test",
		Version:     "test",
		Store:       st,
		Tokens:      auth.NewTokenService("test-secret"),
		StatsCache:  stats.New(redisClient, time.Minute, zap.NewNop()),
		Redis:       redisClient,
		Logger:      zap.NewNop(),
	})
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope), "body: %s", rr.Body.String())
	return rr.Code, envelope
}

func dataOf(t *testing.T, envelope map[string]any) map[string]any {
	t.Helper()
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok, "envelope has no data object: %v", envelope)
	return data
}

func registerUser(t *testing.T, r *gin.Engine, email, name string) (token, userID string) {
	t.Helper()

	code, envelope := do(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"email":    email,
		"password": "secret123",
		"name":     name,
	})
	require.Equal(t, http.StatusCreated, code)

	data := dataOf(t, envelope)
	token = data["token"].(string)
	userID = data["user"].(map[string]any)["userId"].(string)
	require.NotEmpty(t, token)
	require.NotEmpty(t, userID)
	return token, userID
}

func TestFullProjectLifecycle(t *testing.T) {
	r := newTestRouter(t)

	aliceToken, aliceID := registerUser(t, r, "alice@example.com", "Alice")

	t.Run("duplicate registration rejected", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodPost, "/auth/register", "", gin.H{
			"email":    "Alice@Example.com", // normalized to the same address
			"password": "secret123",
			"name":     "Alice Again",
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "EMAIL_EXISTS", envelope["errorCode"])
	})

	t.Run("login returns the same identity", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodPost, "/auth/login", "", gin.H{
			"email":    "alice@example.com",
			"password": "secret123",
		})
		require.Equal(t, http.StatusOK, code)
		data := dataOf(t, envelope)
		assert.Equal(t, aliceID, data["user"].(map[string]any)["userId"])
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodPost, "/auth/login", "", gin.H{
			"email":    "alice@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "INVALID_CREDENTIALS", envelope["errorCode"])
	})

	t.Run("protected routes require a token", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodGet, "/projects", "", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "UNAUTHORIZED", envelope["errorCode"])
	})

	// Create a project and walk it through its lifecycle.
	code, envelope := do(t, r, http.MethodPost, "/projects", aliceToken, gin.H{
		"name":        "Demo Project",
		"description": "A demo",
	})
	require.Equal(t, http.StatusCreated, code)
	project := dataOf(t, envelope)["project"].(map[string]any)
	projectID := project["projectId"].(string)
	assert.Equal(t, "active", project["status"])
	assert.Equal(t, "owner", project["userRole"])
	assert.EqualValues(t, 0, project["taskCount"])
	assert.EqualValues(t, 1, project["memberCount"])

	t.Run("listing shows the project with the caller's role", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodGet, "/projects", aliceToken, nil)
		require.Equal(t, http.StatusOK, code)
		data := dataOf(t, envelope)
		assert.EqualValues(t, 1, data["count"])
		projects := data["projects"].([]any)
		require.Len(t, projects, 1)
		assert.Equal(t, "owner", projects[0].(map[string]any)["userRole"])
	})

	t.Run("detail embeds members", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodGet, "/projects/"+projectID, aliceToken, nil)
		require.Equal(t, http.StatusOK, code)
		detail := dataOf(t, envelope)["project"].(map[string]any)
		members := detail["members"].([]any)
		require.Len(t, members, 1)
		assert.Equal(t, aliceID, members[0].(map[string]any)["userId"])
		assert.Equal(t, "owner", detail["userRole"])
	})

	t.Run("membership is checked before existence", func(t *testing.T) {
		// A project id the caller has no relation to is forbidden, whether or
		// not it exists.
		code, envelope := do(t, r, http.MethodGet, "/projects/does-not-exist", aliceToken, nil)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "FORBIDDEN", envelope["errorCode"])
	})

	bobToken, _ := registerUser(t, r, "bob@example.com", "Bob")

	t.Run("non-member cannot read or mutate", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodGet, "/projects/"+projectID, bobToken, nil)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "FORBIDDEN", envelope["errorCode"])

		code, envelope = do(t, r, http.MethodPut, "/projects/"+projectID, bobToken, gin.H{
			"name": "Hijacked",
		})
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "FORBIDDEN", envelope["errorCode"])

		code, _ = do(t, r, http.MethodPost, "/projects/"+projectID+"/tasks", bobToken, gin.H{
			"title": "Sneaky task",
		})
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("update validation", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodPut, "/projects/"+projectID, aliceToken, gin.H{})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "NO_UPDATES", envelope["errorCode"])

		code, envelope = do(t, r, http.MethodPut, "/projects/"+projectID, aliceToken, gin.H{
			"name": "ab",
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "NAME_TOO_SHORT", envelope["errorCode"])
	})

	code, envelope = do(t, r, http.MethodPut, "/projects/"+projectID, aliceToken, gin.H{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "completed", dataOf(t, envelope)["project"].(map[string]any)["status"])

	// Tasks.
	code, envelope = do(t, r, http.MethodPost, "/projects/"+projectID+"/tasks", aliceToken, gin.H{
		"title": "Write docs",
	})
	require.Equal(t, http.StatusCreated, code)
	task := dataOf(t, envelope)["task"].(map[string]any)
	taskID := task["taskId"].(string)
	assert.Equal(t, "pending", task["status"])
	assert.Equal(t, aliceID, task["assignedTo"], "defaults to the creator")

	t.Run("task creation bumps the project counter", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodGet, "/projects/"+projectID, aliceToken, nil)
		require.Equal(t, http.StatusOK, code)
		detail := dataOf(t, envelope)["project"].(map[string]any)
		assert.EqualValues(t, 1, detail["taskCount"])
	})

	t.Run("me reports derived statistics", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodGet, "/auth/me", aliceToken, nil)
		require.Equal(t, http.StatusOK, code)
		statistics := dataOf(t, envelope)["statistics"].(map[string]any)
		assert.EqualValues(t, 1, statistics["totalProjects"])
		assert.EqualValues(t, 1, statistics["completedProjects"])
		assert.EqualValues(t, 1, statistics["totalTasks"])
		assert.EqualValues(t, 1, statistics["ownedProjects"])
	})

	t.Run("task update and validation", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodPut, "/projects/"+projectID+"/tasks/"+taskID, aliceToken, gin.H{})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "NO_UPDATES", envelope["errorCode"])

		code, envelope = do(t, r, http.MethodPut, "/projects/"+projectID+"/tasks/"+taskID, aliceToken, gin.H{
			"status": "in_progress",
		})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "in_progress", dataOf(t, envelope)["task"].(map[string]any)["status"])

		code, envelope = do(t, r, http.MethodPut, "/projects/"+projectID+"/tasks/ghost", aliceToken, gin.H{
			"status": "done",
		})
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "NOT_FOUND", envelope["errorCode"])
	})

	t.Run("task deletion restores the counter", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodDelete, "/projects/"+projectID+"/tasks/"+taskID, aliceToken, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, taskID, dataOf(t, envelope)["taskId"])

		code, envelope = do(t, r, http.MethodGet, "/projects/"+projectID, aliceToken, nil)
		require.Equal(t, http.StatusOK, code)
		detail := dataOf(t, envelope)["project"].(map[string]any)
		assert.EqualValues(t, 0, detail["taskCount"])
	})

	t.Run("delete project and orphan tolerance", func(t *testing.T) {
		code, envelope := do(t, r, http.MethodDelete, "/projects/"+projectID, aliceToken, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, projectID, dataOf(t, envelope)["projectId"])

		// The relation item is left behind; the listing must skip it.
		code, envelope = do(t, r, http.MethodGet, "/projects", aliceToken, nil)
		require.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 0, dataOf(t, envelope)["count"])
	})
}

func TestProjectListingOrder(t *testing.T) {
	r := newTestRouter(t)
	token, _ := registerUser(t, r, "carol@example.com", "Carol")

	for _, name := range []string{"First Project", "Second Project", "Third Project"} {
		code, _ := do(t, r, http.MethodPost, "/projects", token, gin.H{"name": name})
		require.Equal(t, http.StatusCreated, code)
	}

	code, envelope := do(t, r, http.MethodGet, "/projects", token, nil)
	require.Equal(t, http.StatusOK, code)

	projects := dataOf(t, envelope)["projects"].([]any)
	require.Len(t, projects, 3)
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"Third Project", "Second Project", "First Project"}, names, "newest first")
}

func TestRegistrationValidation(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name string
		body gin.H
		code string
	}{
		{"missing email", gin.H{"password": "secret123", "name": "A"}, "MISSING_FIELD"},
		{"missing password", gin.H{"email": "a@b.c", "name": "A"}, "MISSING_FIELD"},
		{"missing name", gin.H{"email": "a@b.c", "password": "secret123"}, "MISSING_FIELD"},
		{"invalid email", gin.H{"email": "not-an-email", "password": "secret123", "name": "A"}, "INVALID_EMAIL"},
		{"weak password", gin.H{"email": "a@b.c", "password": "short", "name": "A"}, "WEAK_PASSWORD"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, envelope := do(t, r, http.MethodPost, "/auth/register", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tc.code, envelope["errorCode"])
		})
	}
}

func TestProjectCreationValidation(t *testing.T) {
	r := newTestRouter(t)
	token, _ := registerUser(t, r, "dave@example.com", "Dave")

	code, envelope := do(t, r, http.MethodPost, "/projects", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MISSING_NAME", envelope["errorCode"])

	code, envelope = do(t, r, http.MethodPost, "/projects", token, gin.H{"name": "ab"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NAME_TOO_SHORT", envelope["errorCode"])

	code, envelope = do(t, r, http.MethodPost, "/projects/some-id/tasks", token, gin.H{"title": "ab"})
	assert.Equal(t, http.StatusForbidden, code, "membership precedes validation for task routes")
	assert.Equal(t, "FORBIDDEN", envelope["errorCode"])
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t)

	code, envelope := do(t, r, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", envelope["errorCode"])
}
