// Package config loads settings from an optional YAML file and environment
// variables. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database driver name: sqlite3, postgres, pgx or mysql
	DatabaseDriver string
	DatabaseURL    string

	// HTTP server port for the controller
	HTTPPort int

	// Scheduler
	PollInterval      time.Duration
	WorkerConcurrency int
	ProcessTimeout    time.Duration

	// Services is the ordered list of job types to run.
	Services []string

	ImageGeneratorURL     string
	ImageGeneratorTimeout time.Duration

	// Intake rate limit per client, requests per second
	RateLimit      float64
	RateLimitBurst int

	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// header is believed. Empty means clients are keyed by peer address.
	TrustedProxies []string

	LogLevel string

	// OpenTelemetry collector endpoint; empty disables trace export
	OTELEndpoint string
}

// env maps config keys to the environment variables that override them.
var env = map[string]string{
	"database_driver":         "DATABASE_DRIVER",
	"database_url":            "DATABASE_URL",
	"http_port":               "PORT",
	"poll_interval":           "POLL_INTERVAL",
	"worker_concurrency":      "WORKER_CONCURRENCY",
	"process_timeout":         "PROCESS_TIMEOUT",
	"services":                "SERVICES",
	"image_generator_url":     "IMAGE_GENERATOR_URL",
	"image_generator_timeout": "IMAGE_GENERATOR_TIMEOUT",
	"rate_limit":              "RATE_LIMIT",
	"rate_limit_burst":        "RATE_LIMIT_BURST",
	"trusted_proxies":         "TRUSTED_PROXIES",
	"log_level":               "LOG_LEVEL",
	"otel_endpoint":           "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// Load reads configuration. path may be empty, in which case autodb.yaml
// is looked up in the working directory and skipped when absent.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database_driver", "sqlite3")
	v.SetDefault("database_url", "autodb.db")
	v.SetDefault("http_port", 6161)
	v.SetDefault("poll_interval", 2*time.Second)
	v.SetDefault("worker_concurrency", 8)
	v.SetDefault("process_timeout", 5*time.Minute)
	v.SetDefault("services", "image_service")
	v.SetDefault("image_generator_url", "http://localhost:7000/generate")
	v.SetDefault("image_generator_timeout", 60*time.Second)
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("trusted_proxies", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("otel_endpoint", "")

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("autodb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		DatabaseDriver:        strings.ToLower(v.GetString("database_driver")),
		DatabaseURL:           v.GetString("database_url"),
		HTTPPort:              v.GetInt("http_port"),
		PollInterval:          v.GetDuration("poll_interval"),
		WorkerConcurrency:     v.GetInt("worker_concurrency"),
		ProcessTimeout:        v.GetDuration("process_timeout"),
		Services:              splitList(v.GetStringSlice("services")),
		ImageGeneratorURL:     v.GetString("image_generator_url"),
		ImageGeneratorTimeout: v.GetDuration("image_generator_timeout"),
		RateLimit:             v.GetFloat64("rate_limit"),
		RateLimitBurst:        v.GetInt("rate_limit_burst"),
		TrustedProxies:        splitList(v.GetStringSlice("trusted_proxies")),
		LogLevel:              v.GetString("log_level"),
		OTELEndpoint:          v.GetString("otel_endpoint"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database_url is required (env: DATABASE_URL)")
	case c.HTTPPort <= 0 || c.HTTPPort > 65535:
		return fmt.Errorf("invalid http_port %d", c.HTTPPort)
	case c.WorkerConcurrency <= 0:
		return fmt.Errorf("worker_concurrency must be positive, got %d", c.WorkerConcurrency)
	case c.PollInterval <= 0:
		return fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval)
	case c.RateLimit <= 0 || c.RateLimitBurst <= 0:
		return errors.New("rate_limit and rate_limit_burst must be positive")
	}
	for _, p := range c.TrustedProxies {
		if _, err := parsePrefix(p); err != nil {
			return fmt.Errorf("invalid trusted_proxies entry %q", p)
		}
	}
	switch c.DatabaseDriver {
	case "sqlite3", "sqlite", "postgres", "pgx", "mysql":
	default:
		return fmt.Errorf("unsupported database_driver %q", c.DatabaseDriver)
	}
	return nil
}

// parsePrefix accepts a CIDR or a single address.
func parsePrefix(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		return netip.ParsePrefix(s)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// splitList accepts both YAML lists and comma separated strings.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
