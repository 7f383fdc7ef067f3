package api

import (
	"net/http"
	"time"

	"casino-simulator/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status     string                      `json:"status"`
	Timestamp  time.Time                   `json:"timestamp"`
	Version    string                      `json:"version"`
	Components map[string]health.Component `json:"components"`
}

// HealthHandler reports the checker's last results
type HealthHandler struct {
	checker *health.Checker
	version string
}

// NewHealthHandler creates the handler
func NewHealthHandler(checker *health.Checker, version string) *HealthHandler {
	return &HealthHandler{checker: checker, version: version}
}

// Health answers 503 while a critical component is down.
func (h *HealthHandler) Health(c *gin.Context) {
	status, code := "ok", http.StatusOK
	if !h.checker.IsSystemHealthy() {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Version:    h.version,
		Components: h.checker.GetStatus(),
	})
}

// RegisterHealthRoutes registers health check related routes
func (h *HealthHandler) RegisterHealthRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)
}
