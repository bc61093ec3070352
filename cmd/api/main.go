// @title Tennis Market Cache API
// @version 1.0
// @description Classifies prediction-market outcome tokens as tennis or non-tennis and serves the per-token buffer from an in-memory snapshot.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tennis-market-cache/internal/infrastructure/config"
	"tennis-market-cache/internal/infrastructure/logging"
	"tennis-market-cache/internal/infrastructure/marketdata/stream"
	"tennis-market-cache/internal/infrastructure/metrics"
	"tennis-market-cache/internal/infrastructure/web"
	"tennis-market-cache/internal/infrastructure/web/handlers"
	"tennis-market-cache/internal/infrastructure/web/server"
	"tennis-market-cache/pkg/tennis"
)

var version = "1.0.0"

func main() {
	env := config.GetEnvironment()

	cfg, err := config.NewLoader().LoadForEnvironment(env)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	loggerConfig := logging.NewConfig(logging.DefaultServiceName, version, env).
		WithSettings(cfg.Logging.Level, cfg.Logging.Format)
	if err := logging.InitializeGlobalLoggers(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize loggers: %v", err)
	}

	ctx := logging.WithRequestID(context.Background(), logging.GenerateRequestID())
	logging.Info(ctx, "Starting tennis market cache", logging.Fields{
		"version":     version,
		"environment": env,
		"source":      cfg.Source.Backend,
		"mock_mode":   cfg.Development.MockMode,
	})

	metrics.SetApplicationInfo(version, cfg.Source.Backend)

	if err := tennis.Configure(tennis.FactoryFromConfig(cfg)); err != nil {
		log.Fatalf("Failed to configure cache handle: %v", err)
	}
	handle := tennis.Global()

	// El refresher solo existe con scheduler; un *RefreshScheduler nil no debe llegar al router
	var refresher handlers.Refresher
	scheduler := handle.Scheduler()
	if scheduler != nil {
		refresher = scheduler
	}

	var trigger *stream.Trigger
	if cfg.Stream.Enabled && scheduler != nil {
		trigger = stream.NewTrigger(cfg.Stream, scheduler)
		if err := trigger.Start(context.Background()); err != nil {
			logging.WarnWithError(ctx, "Failed to start market stream, relying on periodic refresh", err, nil)
			trigger = nil
		}
	}

	checks := handle.Checks()
	if trigger != nil {
		checks["stream"] = trigger.Check
	}

	router := web.NewRouter(web.RouterConfig{
		Store:     handle.Store(),
		Refresher: refresher,
		Policy:    handle.Policy(),
		Checks:    checks,
		Auth:      cfg.Auth,
		RateLimit: cfg.RateLimit,
	})
	srv := server.NewServer(router, cfg.Server)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Info(ctx, "Shutdown signal received", logging.Fields{"signal": sig.String()})
	case err := <-serverErrors:
		if err != nil {
			logging.ErrorWithError(ctx, "HTTP server failed", err, nil)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := srv.Stop(shutdownCtx); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}
	if trigger != nil {
		trigger.Stop()
	}
	if err := tennis.Shutdown(shutdownCtx); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}

	if shutdownErr != nil {
		logging.ErrorWithError(ctx, "Shutdown completed with errors", shutdownErr, nil)
		os.Exit(1)
	}
	logging.Info(ctx, "Shutdown completed", nil)
}
