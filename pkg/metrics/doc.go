// Package metrics provides Prometheus instrumentation for tenantgate components.
//
// # Quick Start
//
// Wrap a limiter to record admission outcomes:
//
//	limiter, _ := window.NewSafe(10*time.Second, 10, 100)
//	instrumented := window.NewMetricsLimiter(limiter, "api", metrics.DefaultRegistry)
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation, which is also how the tests
// keep metric state separate:
//
//	reg := prometheus.NewRegistry()
//	registry := metrics.NewRegistry(reg)
//
// # Available Metrics
//
// Admission:
//
//   - tenantgate_admission_requests_total: admission checks, by limiter_name
//   - tenantgate_admission_allowed_total: admitted requests
//   - tenantgate_admission_denied_total: denied requests
//   - tenantgate_admission_errors_total: checks that failed without a decision, by reason
//   - tenantgate_admission_check_duration_seconds: time spent in a check
//   - tenantgate_admission_tenants: tenants currently registered
//
// Window occupancy (updated by the reporter's metrics sink):
//
//   - tenantgate_window_requests: admitted requests inside the window, by tenant
//   - tenantgate_window_remaining: remaining quota, by tenant
//   - tenantgate_report_published_total: reports handed to sinks, by sink and result
//
// Simulation:
//
//   - tenantgate_simulate_requests_total: simulator requests, by tenant and decision
//
// Tenant labels are bounded by the limiter's MaxTenants setting.
package metrics
