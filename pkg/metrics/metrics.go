// Package metrics provides Prometheus instrumentation for tenantgate components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name unless Config.Namespace overrides it.
const DefaultNamespace = "tenantgate"

// Registry holds all metric instances for tenantgate components.
type Registry struct {
	// Admission metrics
	AdmissionRequests      *prometheus.CounterVec
	AdmissionAllowed       *prometheus.CounterVec
	AdmissionDenied        *prometheus.CounterVec
	AdmissionErrors        *prometheus.CounterVec
	AdmissionCheckDuration *prometheus.HistogramVec
	Tenants                *prometheus.GaugeVec

	// Window occupancy, published by the reporter
	WindowUsage     *prometheus.GaugeVec
	WindowRemaining *prometheus.GaugeVec
	ReportsTotal    *prometheus.CounterVec

	// Simulation
	SimulatedRequests *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by tenantgate components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Enabled: true, Registry: reg})
}

// NewRegistryWithConfig creates a registry honoring cfg.Namespace and cfg.Labels.
// A nil cfg.Registry registers with prometheus.DefaultRegisterer.
func NewRegistryWithConfig(cfg Config) *Registry {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Registry{
		AdmissionRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "admission",
				Name:        "requests_total",
				Help:        "Total number of admission checks",
				ConstLabels: cfg.Labels,
			},
			[]string{"limiter_name"},
		),

		AdmissionAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "admission",
				Name:        "allowed_total",
				Help:        "Total number of admitted requests",
				ConstLabels: cfg.Labels,
			},
			[]string{"limiter_name"},
		),

		AdmissionDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "admission",
				Name:        "denied_total",
				Help:        "Total number of denied requests",
				ConstLabels: cfg.Labels,
			},
			[]string{"limiter_name"},
		),

		AdmissionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "admission",
				Name:        "errors_total",
				Help:        "Total number of admission checks that failed without a decision",
				ConstLabels: cfg.Labels,
			},
			[]string{"limiter_name", "reason"},
		),

		AdmissionCheckDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "admission",
				Name:        "check_duration_seconds",
				Help:        "Time spent deciding a single admission check",
				Buckets:     prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
				ConstLabels: cfg.Labels,
			},
			[]string{"limiter_name"},
		),

		Tenants: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "admission",
				Name:        "tenants",
				Help:        "Number of tenants tracked by the limiter",
				ConstLabels: cfg.Labels,
			},
			[]string{"limiter_name"},
		),

		WindowUsage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "window",
				Name:        "requests",
				Help:        "Admitted requests inside the current sliding window",
				ConstLabels: cfg.Labels,
			},
			[]string{"limiter_name", "tenant"},
		),

		WindowRemaining: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "window",
				Name:        "remaining",
				Help:        "Requests a tenant may still issue in the current sliding window",
				ConstLabels: cfg.Labels,
			},
			[]string{"limiter_name", "tenant"},
		),

		ReportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "report",
				Name:        "published_total",
				Help:        "Usage reports handed to sinks, by outcome",
				ConstLabels: cfg.Labels,
			},
			[]string{"sink", "result"},
		),

		SimulatedRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "simulate",
				Name:        "requests_total",
				Help:        "Requests issued by the traffic simulator, by decision",
				ConstLabels: cfg.Labels,
			},
			[]string{"tenant", "decision"},
		),
	}
}
