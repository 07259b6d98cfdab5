/*
Package tenantgate provides per-tenant admission control using a sliding
time window: each tenant may issue at most N requests within any trailing
window of W milliseconds, and requests beyond that are rejected.

Admission (pkg/ratelimit/window):
  - window: sliding-window log limiter with one FIFO of timestamps per tenant
  - clock: system and virtual millisecond clocks

Supporting packages:
  - config: YAML configuration with TENANTGATE_* environment overrides
  - metrics: Prometheus instrumentation
  - report: scheduled usage snapshots to logs, metrics and Redis
  - simulate: reproducible multi-tenant traffic on a virtual clock

Example usage:

	import "github.com/vnykmshr/tenantgate/pkg/ratelimit/window"

	limiter, _ := window.NewSafe(10*time.Second, 10, 100) // 10 per 10s, 100 tenants
	defer limiter.Close()

	if d, err := limiter.Allow("acme"); err == nil && d == window.Allowed {
		handle(request)
	}
*/
package tenantgate
