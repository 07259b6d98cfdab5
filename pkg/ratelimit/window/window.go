package window

import (
	"errors"
	"log/slog"
	"time"

	gferrors "github.com/vnykmshr/tenantgate/pkg/common/errors"
)

// slidingWindow implements Limiter with one timestamp log per tenant.
type slidingWindow struct {
	config   Config
	windowMs int64
	registry *Registry
}

// CheckAllowed decides whether tenant may issue a request at now.
func (sw *slidingWindow) CheckAllowed(tenant TenantID, now Timestamp) (Decision, error) {
	entry, err := sw.registry.GetOrCreate(tenant)
	if err != nil {
		return Undecided, sw.fail("CheckAllowed", tenant, err)
	}

	decision := Undecided
	err = entry.Do(func(q *TimestampQueue) error {
		sw.evict(q, now)
		if q.Len() >= sw.config.MaxRequests {
			decision = Denied
			return nil
		}
		if err := q.Append(now); err != nil {
			return err
		}
		decision = Allowed
		return nil
	})
	if err != nil {
		return Undecided, sw.fail("CheckAllowed", tenant, err)
	}
	return decision, nil
}

// Allow checks tenant against the configured clock.
func (sw *slidingWindow) Allow(tenant TenantID) (Decision, error) {
	return sw.CheckAllowed(tenant, sw.Now())
}

// Usage reports tenant's window at now without evicting or recording.
func (sw *slidingWindow) Usage(tenant TenantID, now Timestamp) (Usage, error) {
	if err := tenant.Validate(); err != nil {
		return Usage{}, sw.fail("Usage", tenant, err)
	}
	entry, ok := sw.registry.Lookup(tenant)
	if !ok {
		return sw.emptyUsage(), nil
	}

	var u Usage
	err := entry.Do(func(q *TimestampQueue) error {
		u = sw.usage(q, now)
		return nil
	})
	if err != nil {
		return Usage{}, sw.fail("Usage", tenant, err)
	}
	return u, nil
}

// Snapshot reports every registered tenant's usage at now.
func (sw *slidingWindow) Snapshot(now Timestamp) []TenantUsage {
	var out []TenantUsage
	sw.registry.Range(func(e *Entry) bool {
		_ = e.Do(func(q *TimestampQueue) error {
			out = append(out, TenantUsage{Tenant: e.ID(), Usage: sw.usage(q, now)})
			return nil
		})
		return true
	})
	return out
}

// Now returns the configured clock's reading.
func (sw *slidingWindow) Now() Timestamp {
	return Timestamp(sw.config.Clock.NowMillis())
}

// Tenants returns the number of registered tenants.
func (sw *slidingWindow) Tenants() int {
	return sw.registry.Len()
}

// Config returns the limiter's configuration.
func (sw *slidingWindow) Config() Config {
	return sw.config
}

// Close releases every tenant queue.
func (sw *slidingWindow) Close() error {
	sw.registry.Close()
	return nil
}

// evict drops timestamps that have left the half-open window (now-W, now].
// A head newer than now, after a clock regression, is left alone.
func (sw *slidingWindow) evict(q *TimestampQueue, now Timestamp) {
	for head, err := q.PeekHead(); err == nil && int64(now-head) >= sw.windowMs; head, err = q.PeekHead() {
		_, _ = q.RemoveHead()
	}
}

// usage computes occupancy as if evict had run, leaving q untouched.
func (sw *slidingWindow) usage(q *TimestampQueue, now Timestamp) Usage {
	skip := 0
	for skip < q.Len() && int64(now-q.At(skip)) >= sw.windowMs {
		skip++
	}

	u := sw.emptyUsage()
	u.Count = q.Len() - skip
	if u.Count == 0 {
		return u
	}
	u.Oldest = q.At(skip)
	u.Newest = q.At(q.Len() - 1)

	u.Remaining = sw.config.MaxRequests - u.Count
	if u.Remaining <= 0 {
		u.Remaining = 0
		wait := int64(u.Oldest) + sw.windowMs - int64(now)
		if wait > 0 {
			u.RetryAfter = time.Duration(wait) * time.Millisecond
		}
	}
	return u
}

func (sw *slidingWindow) emptyUsage() Usage {
	return Usage{Remaining: sw.config.MaxRequests}
}

// fail logs err and wraps it with the operation and tenant.
func (sw *slidingWindow) fail(op string, tenant TenantID, err error) error {
	switch {
	case errors.Is(err, gferrors.ErrInvalidTenant):
		sw.config.Logger.Warn("rejected tenant id",
			slog.String("op", op),
			slog.Int("length", len(tenant)))
	case errors.Is(err, gferrors.ErrCapacityExceeded), errors.Is(err, gferrors.ErrOutOfMemory):
		sw.config.Logger.Warn("admission check failed",
			slog.String("op", op),
			slog.String("tenant", string(tenant)),
			slog.String("error", err.Error()))
	}
	return gferrors.NewOperationError("window", op,
		&gferrors.TenantError{Tenant: string(tenant), Err: err})
}
