package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/social-graph/internal/cache"
	"github.com/weiawesome/social-graph/internal/events"
	"github.com/weiawesome/social-graph/internal/handler"
	"github.com/weiawesome/social-graph/internal/relation"
	"github.com/weiawesome/social-graph/internal/service"
	"github.com/weiawesome/social-graph/internal/testutil"
	"github.com/weiawesome/social-graph/pkg/jwt"
	"github.com/weiawesome/social-graph/pkg/middleware"
)

type testServer struct {
	router   *gin.Engine
	tokens   *jwt.Manager
	recorder *events.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	testutil.SeedUsers(t, db, "1", "2", "3")

	backend, err := cache.NewMemoryBackend(100)
	require.NoError(t, err)

	recorder := events.NewRecorder()
	cfg := relation.DefaultConfig()
	cfg.IdentityColumns = []string{"username", "display_name"}
	graph := relation.NewGraph(db, backend, recorder, cfg)

	tokens, err := jwt.NewManager("test-secret", "")
	require.NoError(t, err)

	r := gin.New()
	handler.NewHandler(service.NewSocialGraphService(graph, nil), middleware.NewAuthMiddleware(tokens)).RegisterRoutes(r)

	return &testServer{router: r, tokens: tokens, recorder: recorder}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, userID string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := s.tokens.GenerateAccessToken(userID, "user"+userID, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func TestFollowRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/users/2/follow", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestFollowFlow(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/users/2/follow", "1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"following":true,"changed":true}`, string(env.Data))

	code, env = s.do(t, http.MethodPost, "/api/v1/users/2/follow", "1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"following":true,"changed":false}`, string(env.Data))

	code, env = s.do(t, http.MethodGet, "/api/v1/users/2/relationship", "1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"user_id":"2","is_following":true,"is_followed_by":false,"is_mutual":false,"is_blocking":false,"is_blocked_by":false}`, string(env.Data))

	code, env = s.do(t, http.MethodGet, "/api/v1/users/2/followers/count", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	code, env = s.do(t, http.MethodDelete, "/api/v1/users/2/follow", "1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"following":false,"changed":true}`, string(env.Data))

	assert.Len(t, s.recorder.Events(), 2)
}

func TestFollowSelfIsBadRequest(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/users/1/follow", "1", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestToggleFollow(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/api/v1/users/2/follow/toggle", "1", nil)
	assert.JSONEq(t, `{"following":true}`, string(env.Data))

	_, env = s.do(t, http.MethodPost, "/api/v1/users/2/follow/toggle", "1", nil)
	assert.JSONEq(t, `{"following":false}`, string(env.Data))
}

func TestBatchStatus(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/users/2/follow", "1", nil)
	s.do(t, http.MethodPost, "/api/v1/users/1/follow", "3", nil)

	code, env := s.do(t, http.MethodPost, "/api/v1/users/1/relationships/status", "", map[string]any{
		"target_ids": []string{"2", "3", "4"},
	})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"results":{
		"2":{"is_following":true,"is_followed_by":false},
		"3":{"is_following":false,"is_followed_by":true},
		"4":{"is_following":false,"is_followed_by":false}
	}}`, string(env.Data))

	code, _ = s.do(t, http.MethodPost, "/api/v1/users/1/relationships/status", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListFollowersWithIdentity(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/users/1/follow", "2", nil)
	s.do(t, http.MethodPost, "/api/v1/users/1/follow", "3", nil)

	code, env := s.do(t, http.MethodGet, "/api/v1/users/1/followers?limit=1", "", nil)
	require.Equal(t, http.StatusOK, code)

	var body struct {
		Followers []struct {
			CounterpartID string         `json:"counterpart_id"`
			Identity      map[string]any `json:"identity"`
		} `json:"followers"`
		Limit int `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Followers, 1)
	assert.Equal(t, "3", body.Followers[0].CounterpartID)
	assert.Equal(t, "user3", body.Followers[0].Identity["username"])
	assert.Equal(t, 1, body.Limit)

	code, _ = s.do(t, http.MethodGet, "/api/v1/users/1/followers?limit=1000", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/users/1/followers/latest?n=1", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"counterpart_id":"3"`)
}

func TestMeEndpoints(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/users/2/follow", "1", nil)
	s.do(t, http.MethodPost, "/api/v1/users/1/follow", "3", nil)
	s.do(t, http.MethodPost, "/api/v1/users/3/block", "1", nil)

	code, env := s.do(t, http.MethodGet, "/api/v1/me/related", "1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"user_ids":["2","3"]}`, string(env.Data))

	code, env = s.do(t, http.MethodGet, "/api/v1/me/blocking", "1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"user_ids":["3"]}`, string(env.Data))

	code, env = s.do(t, http.MethodPost, "/api/v1/me/cache/warm", "1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"following":["2"],"followers":["3"],"blocking":["3"]}`, string(env.Data))

	code, _ = s.do(t, http.MethodDelete, "/api/v1/me/cache", "1", nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/me/related", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
