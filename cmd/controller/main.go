// Package main is the entry point for the autodb controller.
// It accepts requests for the configured services and reports their status.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autodb/internal/config"
	"autodb/internal/controller"
	"autodb/internal/database"
	"autodb/internal/logger"
	"autodb/internal/observability"
	"autodb/internal/services"
	"autodb/internal/store"
	"autodb/internal/task"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file (default: autodb.yaml in current directory)")
	flag.Parse()

	// Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logr := logger.NewWithLevel(os.Stdout, cfg.LogLevel)

	enabled := services.Enabled(cfg.Services)
	if len(enabled) == 0 {
		log.Fatalf("No known service in %v (available: %v)", cfg.Services, services.Available())
	}
	cfg.Services = enabled

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, logr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "autodb-controller", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logr.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			logr.Error("failed to shutdown metrics", "error", err)
		}
	}()

	// The gauge queries the database only when scraped.
	pending := store.RecordOf("status", string(task.StatusPending))
	err = observability.RegisterBacklogGauge("autodb-controller", func(ctx context.Context) (map[string]int64, error) {
		counts := make(map[string]int64, len(enabled))
		for _, name := range enabled {
			n, err := db.Count(ctx, task.RequestTable(name), pending)
			if err != nil {
				return nil, err
			}
			counts[name] = n
		}
		return counts, nil
	}, logr)
	if err != nil {
		logr.Warn("failed to register backlog metric", "error", err)
	}

	// Start Server
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, db, cfg, metricsHandler, logr)

	go func() {
		logr.Info("autodb controller starting", "addr", addr, "services", enabled)
		if err := srv.Run(ctx); err != nil {
			logr.Error("server stopped", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down controller")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	logr.Info("server exited properly")
}
