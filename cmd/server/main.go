package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"casino-simulator/backend/internal/repository"
	"casino-simulator/backend/pkg/config"
	"casino-simulator/backend/pkg/di"
	"casino-simulator/backend/pkg/logger"
	"casino-simulator/backend/pkg/observability"
	"casino-simulator/backend/pkg/router"
	"casino-simulator/backend/pkg/secrets"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"
	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", cfg.Server.Version, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.ValidateSettings(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	vault, err := secrets.NewVaultManager(cfg.Vault, log)
	if err != nil {
		return fmt.Errorf("init secrets: %w", err)
	}
	key, err := secrets.Resolve(ctx, vault, cfg.AI.APIKeyName(), cfg.AI.APIKey())
	if err != nil {
		return fmt.Errorf("resolve %s: %w", cfg.AI.APIKeyName(), err)
	}
	cfg.AI.SetAPIKey(key)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Telemetry.TracingEnabled {
		shutdownTracing, err := observability.SetupTracing(cfg.Telemetry.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.LogError(err, "Failed to flush traces")
			}
		}()
	}

	var metricsHandler http.Handler
	if cfg.Telemetry.MetricsEnabled {
		mp, handler, err := observability.SetupMetrics(cfg.Telemetry.ServiceName)
		if err != nil {
			return err
		}
		defer func() { _ = mp.Shutdown(context.Background()) }()
		metricsHandler = handler
	}

	db, err := config.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	container, err := di.New(ctx, cfg, db, log, di.Options{})
	if err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.LogError(err, "Failed to close dependencies")
		}
	}()
	container.Health.Start(ctx)

	r := router.New(container)
	r.SetupRoutes(metricsHandler)
	defer r.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port, "provider", cfg.AI.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
	return nil
}
