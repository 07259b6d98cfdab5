package window

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// mustNewSafe creates a new limiter or panics on error (for benchmarks only)
func mustNewSafe(window time.Duration, maxRequests, maxTenants int) Limiter {
	limiter, err := NewSafe(window, maxRequests, maxTenants)
	if err != nil {
		panic(err)
	}
	return limiter
}

// BenchmarkCheckAllowed_SingleTenant measures contention on one tenant's lock.
func BenchmarkCheckAllowed_SingleTenant(b *testing.B) {
	limiter := mustNewSafe(time.Second, 100, 1)
	defer limiter.Close()

	var now atomic.Int64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = limiter.CheckAllowed("bench", Timestamp(now.Add(1)))
		}
	})
}

// BenchmarkCheckAllowed_ManyTenants measures the registry read path.
func BenchmarkCheckAllowed_ManyTenants(b *testing.B) {
	const tenants = 1024
	limiter := mustNewSafe(time.Second, 100, tenants)
	defer limiter.Close()

	ids := make([]TenantID, tenants)
	for i := range ids {
		ids[i] = TenantID(fmt.Sprintf("tenant-%d", i))
	}

	var seq atomic.Int64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			n := seq.Add(1)
			_, _ = limiter.CheckAllowed(ids[n%tenants], Timestamp(n))
		}
	})
}

// BenchmarkTimestampQueue measures steady-state append and evict.
func BenchmarkTimestampQueue(b *testing.B) {
	q := NewTimestampQueue(64)
	for i := 0; i < 64; i++ {
		_ = q.Append(Timestamp(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = q.RemoveHead()
		_ = q.Append(Timestamp(i))
	}
}
