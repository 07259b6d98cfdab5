package window

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	gferrors "github.com/vnykmshr/tenantgate/pkg/common/errors"
	"github.com/vnykmshr/tenantgate/pkg/metrics"
)

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

// NewWithMetrics creates a limiter whose metrics are registered on a
// private Prometheus registry.
func NewWithMetrics(window time.Duration, maxRequests, maxTenants int, name string) (*MetricsLimiter, error) {
	config := DefaultConfig()
	config.Window = window
	config.MaxRequests = maxRequests
	config.MaxTenants = maxTenants

	return NewWithConfigAndMetrics(config, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a limiter from config and instruments it
// according to metricsConfig.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (*MetricsLimiter, error) {
	base, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}

	ml := &MetricsLimiter{limiter: base, name: name}
	if err := ml.EnableMetrics(metricsConfig); err != nil {
		return nil, err
	}
	return ml, nil
}

// NewMetricsLimiter instruments an existing limiter with registry.
func NewMetricsLimiter(limiter Limiter, name string, registry *metrics.Registry) *MetricsLimiter {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}
	ml := &MetricsLimiter{limiter: limiter, name: name}
	ml.registry.Store(registry)
	ml.enabled.Store(true)
	return ml
}

// CheckAllowed decides a request and records the outcome.
func (ml *MetricsLimiter) CheckAllowed(tenant TenantID, now Timestamp) (Decision, error) {
	if !ml.enabled.Load() {
		return ml.limiter.CheckAllowed(tenant, now)
	}

	reg := ml.registry.Load()
	reg.AdmissionRequests.WithLabelValues(ml.name).Inc()

	start := time.Now()
	decision, err := ml.limiter.CheckAllowed(tenant, now)
	reg.AdmissionCheckDuration.WithLabelValues(ml.name).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		reg.AdmissionErrors.WithLabelValues(ml.name, errorReason(err)).Inc()
	case decision == Allowed:
		reg.AdmissionAllowed.WithLabelValues(ml.name).Inc()
	default:
		reg.AdmissionDenied.WithLabelValues(ml.name).Inc()
	}
	reg.Tenants.WithLabelValues(ml.name).Set(float64(ml.limiter.Tenants()))

	return decision, err
}

// Allow checks tenant against the wrapped limiter's clock.
func (ml *MetricsLimiter) Allow(tenant TenantID) (Decision, error) {
	return ml.CheckAllowed(tenant, ml.limiter.Now())
}

// Usage reports tenant's window and mirrors it into the window gauges.
func (ml *MetricsLimiter) Usage(tenant TenantID, now Timestamp) (Usage, error) {
	u, err := ml.limiter.Usage(tenant, now)
	if err == nil && ml.enabled.Load() {
		ml.observeUsage(tenant, u)
	}
	return u, err
}

// Snapshot reports every tenant's window and mirrors it into the window gauges.
func (ml *MetricsLimiter) Snapshot(now Timestamp) []TenantUsage {
	snap := ml.limiter.Snapshot(now)
	if ml.enabled.Load() {
		for _, tu := range snap {
			ml.observeUsage(tu.Tenant, tu.Usage)
		}
		ml.registry.Load().Tenants.WithLabelValues(ml.name).Set(float64(len(snap)))
	}
	return snap
}

// Now returns the wrapped limiter's clock reading.
func (ml *MetricsLimiter) Now() Timestamp {
	return ml.limiter.Now()
}

// Tenants returns the number of registered tenants.
func (ml *MetricsLimiter) Tenants() int {
	return ml.limiter.Tenants()
}

// Config returns the wrapped limiter's configuration.
func (ml *MetricsLimiter) Config() Config {
	return ml.limiter.Config()
}

// Close closes the wrapped limiter.
func (ml *MetricsLimiter) Close() error {
	return ml.limiter.Close()
}

// Name returns the limiter_name label value.
func (ml *MetricsLimiter) Name() string {
	return ml.name
}

// EnableMetrics enables metrics collection.
func (ml *MetricsLimiter) EnableMetrics(config metrics.Config) error {
	if config.Registry != nil {
		ml.registry.Store(metrics.NewRegistryWithConfig(config))
	} else if ml.registry.Load() == nil {
		ml.registry.Store(metrics.DefaultRegistry)
	}
	ml.enabled.Store(config.Enabled)
	return nil
}

// DisableMetrics disables metrics collection.
func (ml *MetricsLimiter) DisableMetrics() {
	ml.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ml *MetricsLimiter) MetricsEnabled() bool {
	return ml.enabled.Load()
}

func (ml *MetricsLimiter) observeUsage(tenant TenantID, u Usage) {
	reg := ml.registry.Load()
	reg.WindowUsage.WithLabelValues(ml.name, string(tenant)).Set(float64(u.Count))
	reg.WindowRemaining.WithLabelValues(ml.name, string(tenant)).Set(float64(u.Remaining))
}

// errorReason maps an admission error to a low-cardinality label value.
func errorReason(err error) string {
	switch {
	case errors.Is(err, gferrors.ErrInvalidTenant):
		return "invalid_tenant"
	case errors.Is(err, gferrors.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, gferrors.ErrOutOfMemory):
		return "out_of_memory"
	case errors.Is(err, gferrors.ErrClosed):
		return "closed"
	default:
		return "other"
	}
}

var _ metrics.Instrumentable = (*MetricsLimiter)(nil)
var _ Limiter = (*MetricsLimiter)(nil)
