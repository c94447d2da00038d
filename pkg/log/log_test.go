package log

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxFallsBackToGlobal(t *testing.T) {
	l := Ctx(context.Background())
	assert.NotNil(t, l)
}

func TestWithUserIDTagsLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: "info", Output: &buf})

	ctx := WithUserID(WithLogger(context.Background(), base), "42")
	l := Ctx(ctx)
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "42", entry[FieldActorID])
}

func TestGinMiddlewareSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(GinMiddleware(New(Config{Level: "info", Output: &buf}), "/health"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(headerRequestID, "req-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(headerRequestID))
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
	assert.Empty(t, buf.String())
}
