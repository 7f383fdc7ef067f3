package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"casino-simulator/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaPath = "../../api/openapi.yaml"

func newValidatedEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := NewOpenAPIValidator(schemaPath)
	require.NoError(t, err)

	r := gin.New()
	r.Use(errors.ErrorHandler(), v.Middleware())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.POST("/api/sessions/:id/response", ok)
	r.GET("/internal/debug", ok)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareAcceptsDocumentedRequests(t *testing.T) {
	r := newValidatedEngine(t)

	w := post(r, "/api/sessions/s1/response", `{"prompt":"hit","game_state":{"score":120}}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// prompt presence is checked by the handler, not the schema
	w = post(r, "/api/sessions/s1/response", `{"game_state":{}}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestMiddlewareRejectsNonObjectGameState(t *testing.T) {
	r := newValidatedEngine(t)

	w := post(r, "/api/sessions/s1/response", `{"prompt":"hit","game_state":[1,2,3]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request")
}

func TestMiddlewareSkipsUndocumentedPaths(t *testing.T) {
	r := newValidatedEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal/debug", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReloadSchema(t *testing.T) {
	v, err := NewOpenAPIValidator(schemaPath)
	require.NoError(t, err)
	assert.NoError(t, v.ReloadSchema())
	assert.Equal(t, schemaPath, v.SchemaPath())

	_, err = NewOpenAPIValidator("does-not-exist.yaml")
	assert.Error(t, err)
}
