package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range env {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "autodb-test-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseDriver != "sqlite3" {
		t.Errorf("expected DatabaseDriver sqlite3, got %s", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL != "autodb.db" {
		t.Errorf("expected DatabaseURL autodb.db, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 6161 {
		t.Errorf("expected HTTPPort 6161, got %d", cfg.HTTPPort)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("expected PollInterval 2s, got %v", cfg.PollInterval)
	}
	if cfg.WorkerConcurrency != 8 {
		t.Errorf("expected WorkerConcurrency 8, got %d", cfg.WorkerConcurrency)
	}
	if !reflect.DeepEqual(cfg.Services, []string{"image_service"}) {
		t.Errorf("expected Services [image_service], got %v", cfg.Services)
	}
	if cfg.ImageGeneratorTimeout != time.Minute {
		t.Errorf("expected ImageGeneratorTimeout 1m, got %v", cfg.ImageGeneratorTimeout)
	}
	if cfg.OTELEndpoint != "" {
		t.Errorf("expected empty OTELEndpoint, got %s", cfg.OTELEndpoint)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("expected no TrustedProxies, got %v", cfg.TrustedProxies)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "PGX")
	t.Setenv("DATABASE_URL", "postgres://custom/db")
	t.Setenv("PORT", "9999")
	t.Setenv("WORKER_CONCURRENCY", "5")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("SERVICES", "image_service, video_service")
	t.Setenv("RATE_LIMIT", "2.5")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseDriver != "pgx" {
		t.Errorf("expected DatabaseDriver pgx, got %s", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL != "postgres://custom/db" {
		t.Errorf("expected DatabaseURL from env, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 9999 {
		t.Errorf("expected HTTPPort 9999, got %d", cfg.HTTPPort)
	}
	if cfg.WorkerConcurrency != 5 {
		t.Errorf("expected WorkerConcurrency 5, got %d", cfg.WorkerConcurrency)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("expected PollInterval 500ms, got %v", cfg.PollInterval)
	}
	if !reflect.DeepEqual(cfg.Services, []string{"image_service", "video_service"}) {
		t.Errorf("unexpected Services %v", cfg.Services)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("expected RateLimit 2.5, got %v", cfg.RateLimit)
	}
	if cfg.OTELEndpoint != "otel-collector:4317" {
		t.Errorf("expected OTELEndpoint otel-collector:4317, got %s", cfg.OTELEndpoint)
	}
	if !reflect.DeepEqual(cfg.TrustedProxies, []string{"10.0.0.0/8", "192.168.1.1"}) {
		t.Errorf("unexpected TrustedProxies %v", cfg.TrustedProxies)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"driver", "DATABASE_DRIVER", "oracle"},
		{"port", "PORT", "70000"},
		{"concurrency", "WORKER_CONCURRENCY", "-1"},
		{"rate", "RATE_LIMIT", "-3"},
		{"proxy", "TRUSTED_PROXIES", "not-an-ip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(""); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database_driver: mysql
database_url: "user:pass@tcp(db:3306)/autodb"
http_port: 7777
worker_concurrency: 3
services:
  - image_service
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseDriver != "mysql" {
		t.Errorf("expected DatabaseDriver mysql, got %s", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL != "user:pass@tcp(db:3306)/autodb" {
		t.Errorf("expected DatabaseURL from config file, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 7777 {
		t.Errorf("expected HTTPPort 7777, got %d", cfg.HTTPPort)
	}
	if cfg.WorkerConcurrency != 3 {
		t.Errorf("expected WorkerConcurrency 3, got %d", cfg.WorkerConcurrency)
	}
	if !reflect.DeepEqual(cfg.Services, []string{"image_service"}) {
		t.Errorf("unexpected Services %v", cfg.Services)
	}
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database_url: "from-file.db"
http_port: 7777
`)
	t.Setenv("DATABASE_URL", "from-env.db")
	t.Setenv("PORT", "8888")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "from-env.db" {
		t.Errorf("expected DatabaseURL from env, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 8888 {
		t.Errorf("expected HTTPPort 8888 from env, got %d", cfg.HTTPPort)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	clearEnv(t)

	_, err := Load("/nonexistent/path/to/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent config file")
	}
}
