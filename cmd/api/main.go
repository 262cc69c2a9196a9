package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/studio-pulse/internal/api/router"
	"github.com/wolfman30/studio-pulse/internal/app/bootstrap"
	appconfig "github.com/wolfman30/studio-pulse/internal/config"
	"github.com/wolfman30/studio-pulse/internal/dashboard"
	"github.com/wolfman30/studio-pulse/internal/events"
	"github.com/wolfman30/studio-pulse/internal/notify"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

func main() {
	// Optional .env for local runs
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting studio-pulse API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"provider_id", cfg.ProviderID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	pool, err := bootstrap.BuildPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	source, err := bootstrap.BuildSource(cfg, pool, logger)
	if err != nil {
		return err
	}

	deps := bootstrap.SchedulerDeps{
		Source:      source,
		Preferences: bootstrap.BuildPreferences(redisClient, cfg.ProviderID, logger),
	}
	if redisClient != nil {
		deps.Notifier = notify.NewService(notify.NewRedisPublisher(redisClient), notify.Channel(cfg.ProviderID), logger)
	}
	var statusLog *events.StatusLog
	if pool != nil {
		statusLog = events.NewStatusLog(pool, cfg.ProviderID, logger)
		deps.Recorder = statusLog
	}
	metricsHandler, registry := setupMetrics()
	deps.Registerer = registry
	scheduler, err := bootstrap.BuildScheduler(cfg, deps, logger)
	if err != nil {
		return err
	}

	dash := dashboard.NewHandler(scheduler, logger)
	if statusLog != nil {
		dash = dash.WithHistory(statusLog)
	}

	checks := map[string]router.ReadinessCheck{}
	if pool != nil {
		checks["database"] = pool.Ping
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(&router.Config{
			Logger:             logger,
			Dashboard:          dash,
			MetricsHandler:     metricsHandler,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			Checks:             checks,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-schedulerDone
	logger.Info("server stopped")
	return nil
}

// setupMetrics builds a dedicated registry with runtime collectors and its
// HTTP handler.
func setupMetrics() (http.Handler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), reg
}
