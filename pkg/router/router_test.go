package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"casino-simulator/backend/ai"
	"casino-simulator/backend/internal/repository"
	"casino-simulator/backend/pkg/config"
	"casino-simulator/backend/pkg/di"
	"casino-simulator/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T, env map[string]string, completer ai.Completer, metrics http.Handler) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	base := map[string]string{
		"OPENAI_API_KEY":   "sk-test",
		"DB_DRIVER":        "sqlite",
		"RATE_LIMIT":       "1000",
		"RATE_LIMIT_BURST": "1000",
	}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.LoadFrom(base)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	container, err := di.New(context.Background(), cfg, db, logger.Discard(), di.Options{Completer: completer})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })
	container.Health.RunChecks(context.Background())

	r := New(container)
	r.SetupRoutes(metrics)
	t.Cleanup(r.Close)
	return r
}

func request(r *Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	return w
}

func replyWith(text string) ai.Completer {
	return ai.CompleterFunc(func(context.Context, string, string) (string, error) {
		return text, nil
	})
}

func TestSessionRoutesMountedTwice(t *testing.T) {
	r := newTestRouter(t, nil, replyWith("You drew a 9"), nil)

	w := request(r, http.MethodPost, "/api/sessions/s1/response", `{"prompt":"hit","game_state":{"score":120}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	for _, path := range []string{"/api/sessions/s1/response", "/sessions/s1/response"} {
		w = request(r, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		var session map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
		assert.Equal(t, "s1", session["id"])
	}
}

func TestHealthAndNoRoute(t *testing.T) {
	r := newTestRouter(t, nil, replyWith("ok"), nil)

	w := request(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"database"`)
	assert.Contains(t, w.Body.String(), `"ai_provider"`)

	w = request(r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(r, http.MethodGet, "/api/v1/tables", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"API endpoint not found"}`, w.Body.String())
}

func TestRateLimitedSessionRoutes(t *testing.T) {
	r := newTestRouter(t, map[string]string{
		"RATE_LIMIT":       "0.001",
		"RATE_LIMIT_BURST": "1",
	}, replyWith("ok"), nil)

	w := request(r, http.MethodGet, "/api/sessions/s1/response", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(r, http.MethodGet, "/api/sessions/s1/response", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, w.Body.String())

	// health is never limited
	w = request(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProviderTimeout(t *testing.T) {
	blocking := ai.CompleterFunc(func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := newTestRouter(t, map[string]string{"AI_TIMEOUT": "50ms"}, blocking, nil)

	w := request(r, http.MethodPost, "/api/sessions/s1/response", `{"prompt":"hit","game_state":{"score":1}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"OpenAI API error: request timed out after 50ms"}`, w.Body.String())
	assert.Equal(t, "true", w.Header().Get("X-Game-State-Committed"))

	w = request(r, http.MethodGet, "/api/sessions/s1/responses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("casino_sessions_created_total 1\n"))
	})
	r := newTestRouter(t, nil, replyWith("ok"), metrics)

	w := request(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "casino_sessions_created_total")
}

func TestOpenAPIValidationFromConfig(t *testing.T) {
	r := newTestRouter(t, map[string]string{"OPENAPI_SCHEMA_PATH": "../../api/openapi.yaml"}, replyWith("ok"), nil)

	w := request(r, http.MethodPost, "/api/sessions/s1/response", `{"prompt":"hit","game_state":"not an object"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request")

	w = request(r, http.MethodGet, "/api/docs/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
