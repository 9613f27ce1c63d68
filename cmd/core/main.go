// Package main is the entry point for the autodb scheduler.
// It polls every registered service for pending requests and processes them
// on a bounded worker pool.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"autodb/internal/config"
	"autodb/internal/database"
	"autodb/internal/logger"
	"autodb/internal/observability"
	"autodb/internal/services"
	"autodb/internal/services/image"
	"autodb/internal/task"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file (default: autodb.yaml in current directory)")
	metricsAddr := flag.String("metrics-addr", ":6162", "Listen address of the metrics endpoint")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logr := logger.NewWithLevel(os.Stdout, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "autodb-core", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logr.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// Metrics before the scheduler so its instruments bind to the provider
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			logr.Error("failed to shutdown metrics", "error", err)
		}
	}()

	store, err := database.Connect(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, logr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer store.Close()

	b := task.NewRegistryBuilder()
	err = services.Register(b, services.Deps{
		Store:   store,
		Enabled: cfg.Services,
		Image: image.Config{
			GeneratorURL: cfg.ImageGeneratorURL,
			Timeout:      cfg.ImageGeneratorTimeout,
		},
	})
	if err != nil {
		log.Fatalf("Failed to register services: %v", err)
	}
	registry, err := b.Build()
	if err != nil {
		log.Fatalf("Invalid service registry: %v", err)
	}

	scheduler := task.New(registry, task.SchedulerConfig{
		Concurrency:    cfg.WorkerConcurrency,
		PollInterval:   cfg.PollInterval,
		ProcessTimeout: cfg.ProcessTimeout,
	}, logr)

	logr.Info("scheduler started",
		"services", registry.Names(),
		"concurrency", cfg.WorkerConcurrency,
		"poll_interval", cfg.PollInterval,
	)
	go scheduler.Run(ctx)

	// Start a dedicated metrics server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		logr.Info("metrics listening", "addr", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logr.Error("metrics server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down scheduler, waiting for in-flight work")
	cancel()

	<-scheduler.Done()
	logr.Info("scheduler exited properly")
}
