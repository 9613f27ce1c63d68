// Package observability provides OpenTelemetry instrumentation for tracing and metrics.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes the OpenTelemetry metrics provider with a Prometheus exporter.
// It returns the HTTP handler for the /metrics endpoint and a shutdown function.
// The shutdown function should be called on application exit for graceful cleanup.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

// BacklogFunc reports the number of pending records per service.
type BacklogFunc func(ctx context.Context) (map[string]int64, error)

// RegisterBacklogGauge registers the autodb.requests.pending gauge. The
// callback runs only when metrics are scraped; its errors are logged and the
// scrape goes on without the gauge.
func RegisterBacklogGauge(meterName string, backlog BacklogFunc, logger *slog.Logger) error {
	meter := otel.Meter(meterName)
	_, err := meter.Int64ObservableGauge("autodb.requests.pending",
		otelmetric.WithDescription("Current number of pending requests per service"),
		otelmetric.WithInt64Callback(func(ctx context.Context, obs otelmetric.Int64Observer) error {
			counts, err := backlog(ctx)
			if err != nil {
				logger.Warn("failed to count pending requests", "error", err)
				return nil
			}
			for service, n := range counts {
				obs.Observe(n, otelmetric.WithAttributes(attribute.String("service", service)))
			}
			return nil
		}),
	)
	return err
}
