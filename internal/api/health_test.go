package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"casino-simulator/backend/pkg/health"
	"casino-simulator/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dbUp := true
	checker := health.NewChecker(logger.Discard(), time.Minute)
	checker.RegisterPingCheck("database", true, func(context.Context) error {
		if dbUp {
			return nil
		}
		return errors.New("connection refused")
	})
	checker.RegisterPingCheck("cache", false, func(context.Context) error {
		return errors.New("redis down")
	})

	r := gin.New()
	NewHealthHandler(checker, "1.2.3").RegisterHealthRoutes(r.Group(""))

	checker.RunChecks(context.Background())
	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	components := body["components"].(map[string]any)
	assert.Equal(t, "down", components["cache"].(map[string]any)["status"])

	dbUp = false
	checker.RunChecks(context.Background())
	w = do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", decode(t, w)["status"])
}
