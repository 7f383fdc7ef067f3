package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casino-simulator/backend/ai"
	"casino-simulator/backend/internal/repository"
	"casino-simulator/backend/internal/service"
	"casino-simulator/backend/pkg/cache"
	"casino-simulator/backend/pkg/config"
	"casino-simulator/backend/pkg/health"
	"casino-simulator/backend/pkg/logger"
	"casino-simulator/backend/pkg/observability"
	"casino-simulator/backend/pkg/resilience"

	"gorm.io/gorm"
)

const (
	memoryCacheItems    = 10000
	healthCheckInterval = 30 * time.Second
)

// Container holds all the dependencies for the application
type Container struct {
	Config         *config.Config
	DB             *gorm.DB
	Logger         *logger.Logger
	Cache          cache.Store
	Repository     repository.SessionRepository
	Breaker        *resilience.CircuitBreaker
	Completer      ai.Completer
	Metrics        *observability.Metrics
	SessionService *service.SessionService
	Health         *health.Checker

	closers []func() error
}

// Options substitutes dependencies that would otherwise be built from
// configuration.
type Options struct {
	// Completer replaces the configured provider client. It is still
	// wrapped by the breaker and the timeout.
	Completer ai.Completer
	// Cache replaces the Redis or in-memory store.
	Cache cache.Store
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logger.Logger, opts Options) (*Container, error) {
	c := &Container{
		Config: cfg,
		DB:     db,
		Logger: log,
	}

	store, err := c.newCache(ctx, opts.Cache)
	if err != nil {
		return nil, err
	}
	c.Cache = store
	c.Repository = repository.NewCachedSessionRepository(repository.NewGormSessionRepository(db), store, log)

	provider, completer, err := newProvider(ctx, cfg.AI, opts.Completer)
	if err != nil {
		return nil, err
	}
	if cfg.AI.BreakerEnabled {
		breakerCfg := resilience.DefaultConfig(provider)
		breakerCfg.FailureThreshold = cfg.AI.BreakerFailures
		breakerCfg.RetryTimeout = cfg.AI.BreakerCooldown
		c.Breaker = resilience.NewCircuitBreaker(breakerCfg, log)
	}
	// The timeout sits inside the breaker so that timeouts count as failures.
	c.Completer = ai.WithCircuitBreaker(ai.WithTimeout(completer, provider, cfg.AI.Timeout), provider, c.Breaker)

	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	c.Metrics = metrics

	c.SessionService = service.NewSessionService(c.Repository, c.Completer, metrics)
	c.Health = c.newHealthChecker()

	return c, nil
}

func (c *Container) newCache(ctx context.Context, override cache.Store) (cache.Store, error) {
	if override != nil {
		return override, nil
	}

	ttl := c.Config.Redis.CacheTTL
	if c.Config.Redis.URL == "" {
		mem := cache.NewMemory(ttl, ttl, memoryCacheItems)
		c.closers = append(c.closers, mem.Close)
		c.Logger.Info("Using in-memory session cache")
		return mem, nil
	}

	rdb, err := cache.NewRedis(c.Config.Redis.URL, "casino:", ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis cache: %w", err)
	}
	if err := rdb.Ping(ctx); err != nil {
		// The cache is optional; requests fall through to the database.
		c.Logger.Warn("Redis not reachable at startup", "error", err.Error())
	}
	c.closers = append(c.closers, rdb.Close)
	c.Logger.Info("Using redis session cache")
	return rdb, nil
}

func newProvider(ctx context.Context, cfg config.AIConfig, override ai.Completer) (string, ai.Completer, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		if override != nil {
			return "Ark", override, nil
		}
		client, err := ai.NewArkClient(ctx, ai.ArkConfig{
			APIKey:  cfg.ArkAPIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Region:  cfg.ArkRegion,
		})
		if err != nil {
			return "", nil, err
		}
		return "Ark", client, nil
	default:
		if override != nil {
			return "OpenAI", override, nil
		}
		client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return "", nil, err
		}
		return "OpenAI", client, nil
	}
}

func (c *Container) newHealthChecker() *health.Checker {
	checker := health.NewChecker(c.Logger, healthCheckInterval)

	checker.RegisterPingCheck("database", true, func(ctx context.Context) error {
		return config.Ping(ctx, c.DB)
	})

	if pinger, ok := c.Cache.(interface{ Ping(context.Context) error }); ok {
		checker.RegisterPingCheck("cache", false, pinger.Ping)
	}

	if c.Breaker != nil {
		checker.RegisterCheck("ai_provider", false, func(context.Context) (health.Status, string, error) {
			switch c.Breaker.State() {
			case resilience.StateOpen:
				return health.StatusDegraded, "circuit open", nil
			case resilience.StateHalfOpen:
				return health.StatusDegraded, "circuit half-open", nil
			default:
				return health.StatusUp, "circuit closed", nil
			}
		})
	}

	return checker
}

// Close releases the cache connection and stops background loops.
func (c *Container) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
