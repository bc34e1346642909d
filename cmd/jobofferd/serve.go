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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"job-offer-pipeline/internal/api"
	"job-offer-pipeline/internal/common/config"
	"job-offer-pipeline/internal/scheduler"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	started := time.Now()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	zapLog := a.zapLog

	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	readiness := map[string]api.ReadinessCheck{
		"postgres": a.pg.Ping,
		"redis":    a.redis.Ping,
	}
	if a.es != nil {
		readiness["elasticsearch"] = a.es.Ping
		if _, err := a.jobOffers.Reindex(ctx); err != nil {
			zapLog.Warn("initial reindex failed", zap.Error(err))
		}
	}

	server := api.NewServer(api.Dependencies{
		JobOffers:  a.jobOffers,
		Search:     a.stats,
		Engagement: a.engagement,
		Readiness:  readiness,
	}, api.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, a.log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	// --- Background jobs ---
	jobsCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(a.log,
			scheduler.StatsRefreshJob(cfg.Scheduler.StatsRefresh, a.stats),
			scheduler.ReindexJob(cfg.Scheduler.Reindex, a.jobOffers),
		)
		if err := sched.Start(jobsCtx); err != nil {
			return err
		}
	}

	// --- Metrics Server ---
	var metricsServer *http.Server
	if cfg.Server.MetricsPort != cfg.Server.Port {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.MetricsPort), Handler: mux}
		go func() {
			zapLog.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLog.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, stopping server...")
	case err := <-serverErr:
		zapLog.Error("API server failed", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down API server", zap.Error(err))
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	stopJobs()
	if sched != nil {
		sched.Stop(shutdownCtx)
	}

	zapLog.Info("jobofferd stopped gracefully", zap.Duration("uptime", time.Since(started)))
	return nil
}
