package router

import (
	"net/http"

	"casino-simulator/backend/internal/api"
	"casino-simulator/backend/pkg/di"
	"casino-simulator/backend/pkg/errors"
	"casino-simulator/backend/pkg/logger"
	"casino-simulator/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger

	rateLimiter *middleware.RateLimiter
}

// New creates the engine with its middleware chain. Routes are added by
// SetupRoutes.
func New(container *di.Container) *Router {
	cfg := container.Config

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger first so every later middleware sees the request logger.
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	engine.Use(middleware.MaxBodySize(cfg.Security.MaxBodySize))

	opts := middleware.DefaultRateLimiterOptions()
	opts.Limit = rate.Limit(cfg.Security.RateLimit)
	opts.Burst = cfg.Security.RateLimitBurst

	r := &Router{
		Engine:      engine,
		Container:   container,
		Logger:      container.Logger,
		rateLimiter: middleware.NewRateLimiter(container.Logger, opts),
	}

	if cfg.OpenAPISchemaPath != "" {
		r.AddOpenAPIValidation(cfg.OpenAPISchemaPath)
	}

	return r
}

// SetupRoutes registers all application routes. metrics may be nil.
func (r *Router) SetupRoutes(metrics http.Handler) {
	healthHandler := api.NewHealthHandler(r.Container.Health, r.Container.Config.Server.Version)
	sessionController := api.NewSessionController(r.Container.SessionService)

	// The game client calls /api/...; the bare paths are kept for tools.
	for _, prefix := range []string{"", "/api"} {
		group := r.Engine.Group(prefix)
		healthHandler.RegisterHealthRoutes(group)

		limited := group.Group("", r.rateLimiter.Middleware())
		sessionController.RegisterRoutes(limited)
	}

	if metrics != nil {
		r.Engine.GET("/metrics", gin.WrapH(metrics))
	}

	r.Engine.NoRoute(errors.NoRoute())
}

// Close stops background work started by New.
func (r *Router) Close() {
	r.rateLimiter.Stop()
}
