/*
Package window implements per-tenant admission control with a sliding-window
log.

Each tenant owns a FIFO of the timestamps of its admitted requests. A request
arriving at now first evicts every timestamp t with now-t >= Window, then is
admitted and recorded if fewer than MaxRequests timestamps remain. Eviction
and admission happen under the tenant's own lock, so two concurrent requests
can never both take the last slot, and tenants never wait on each other.

Basic usage:

	limiter, err := window.NewSafe(10*time.Second, 10, 100)
	if err != nil {
		log.Fatal(err)
	}
	defer limiter.Close()

	decision, err := limiter.Allow("acme")
	if err != nil {
		return err
	}
	if decision == window.Denied {
		// reject with 429
	}

Callers that manage time themselves pass it explicitly:

	decision, err := limiter.CheckAllowed("acme", window.Timestamp(nowMillis))

Errors are *errors.OperationError values wrapping one of the sentinels in
pkg/common/errors (ErrInvalidTenant, ErrCapacityExceeded, ErrOutOfMemory,
ErrClosed), so callers match them with errors.Is. A decision is never
returned together with an error.

The window is half-open: a request at exactly now-Window has already left.
Clocks that move backwards are tolerated; the affected requests are judged
against the queue as it stands.

Metrics:

	limiter, err := window.NewWithMetrics(10*time.Second, 10, 100, "api")

wraps a limiter with Prometheus counters for requests, decisions and errors,
a check-duration histogram and per-tenant window gauges.
*/
package window
