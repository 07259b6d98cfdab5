package report

import (
	"context"
	"log/slog"

	"github.com/vnykmshr/tenantgate/internal/logging"
	"github.com/vnykmshr/tenantgate/pkg/metrics"
)

// LogSink writes reports to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger discards reports.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LogSink{logger: logger.With("component", "report")}
}

// Name returns "log".
func (s *LogSink) Name() string { return "log" }

// Publish logs a summary record followed by one record per tenant.
func (s *LogSink) Publish(ctx context.Context, r Report) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "usage report",
		slog.String("instance", r.InstanceID),
		slog.Int64("now", int64(r.Now)),
		slog.Int("tenants", len(r.Tenants)),
		slog.Int("throttled", len(r.Throttled())),
	)
	for _, tu := range r.Tenants {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.logger.LogAttrs(ctx, slog.LevelInfo, "tenant usage",
			slog.String("tenant", string(tu.Tenant)),
			slog.Int("count", tu.Count),
			slog.Int("remaining", tu.Remaining),
			slog.Duration("retry_after", tu.RetryAfter),
		)
	}
	return nil
}

// Close is a no-op.
func (s *LogSink) Close() error { return nil }

// MetricsSink mirrors reports into the window gauges of a metrics registry.
type MetricsSink struct {
	registry *metrics.Registry
	name     string
}

// NewMetricsSink creates a MetricsSink labelling gauges with limiterName.
// A nil registry uses metrics.DefaultRegistry.
func NewMetricsSink(registry *metrics.Registry, limiterName string) *MetricsSink {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}
	return &MetricsSink{registry: registry, name: limiterName}
}

// Name returns "metrics".
func (s *MetricsSink) Name() string { return "metrics" }

// Publish sets the per-tenant usage gauges.
func (s *MetricsSink) Publish(_ context.Context, r Report) error {
	for _, tu := range r.Tenants {
		s.registry.WindowUsage.WithLabelValues(s.name, string(tu.Tenant)).Set(float64(tu.Count))
		s.registry.WindowRemaining.WithLabelValues(s.name, string(tu.Tenant)).Set(float64(tu.Remaining))
	}
	s.registry.Tenants.WithLabelValues(s.name).Set(float64(len(r.Tenants)))
	return nil
}

// Close is a no-op.
func (s *MetricsSink) Close() error { return nil }
