package window

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/vnykmshr/tenantgate/internal/testutil"
	gferrors "github.com/vnykmshr/tenantgate/pkg/common/errors"
)

func TestTenantID_Validate(t *testing.T) {
	tests := []struct {
		name    string
		id      TenantID
		wantErr bool
	}{
		{"simple", "acme", false},
		{"numeric", "0", false},
		{"punctuation", "team-1.prod:eu", false},
		{"max length", TenantID(strings.Repeat("a", MaxTenantIDLength)), false},
		{"empty", "", true},
		{"too long", TenantID(strings.Repeat("a", MaxTenantIDLength+1)), true},
		{"space", "acme corp", true},
		{"newline", "acme\n", true},
		{"control", "acme\x00", true},
		{"invalid utf8", "\xff\xfe", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if tt.wantErr {
				testutil.AssertErrorIs(t, err, gferrors.ErrInvalidTenant)
			} else {
				testutil.AssertNoError(t, err)
			}
		})
	}
}

func TestTenantIDFromInt(t *testing.T) {
	testutil.AssertEqual(t, TenantIDFromInt(0), TenantID("0"))
	testutil.AssertEqual(t, TenantIDFromInt(42), TenantID("42"))
	testutil.AssertErrorIs(t, TenantIDFromInt(-1).Validate(), gferrors.ErrInvalidTenant)
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry(RegistryConfig{MaxTenants: 2, QueueLimit: 4})

	a1, err := r.GetOrCreate("a")
	testutil.AssertNoError(t, err)
	a2, err := r.GetOrCreate("a")
	testutil.AssertNoError(t, err)
	if a1 != a2 {
		t.Fatal("expected the same entry for repeated lookups")
	}
	testutil.AssertEqual(t, a1.ID(), TenantID("a"))

	_, err = r.GetOrCreate("b")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, r.Len(), 2)

	_, err = r.GetOrCreate("c")
	testutil.AssertErrorIs(t, err, gferrors.ErrCapacityExceeded)
	testutil.AssertEqual(t, r.Len(), 2)

	// Existing tenants stay reachable when the registry is full.
	_, err = r.GetOrCreate("b")
	testutil.AssertNoError(t, err)

	_, err = r.GetOrCreate("")
	testutil.AssertErrorIs(t, err, gferrors.ErrInvalidTenant)
}

func TestRegistry_ConcurrentCreate(t *testing.T) {
	const goroutines = 64
	r := NewRegistry(RegistryConfig{MaxTenants: 1, QueueLimit: goroutines})

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		entries = make([]*Entry, goroutines)
		errs    = make([]error, goroutines)
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			entries[i], errs[i] = r.GetOrCreate("shared")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		testutil.AssertNoError(t, errs[i])
		if entries[i] != entries[0] {
			t.Fatalf("goroutine %d saw a different entry", i)
		}
	}
	testutil.AssertEqual(t, r.Len(), 1)
}

func TestRegistry_ConcurrentCapacity(t *testing.T) {
	const (
		maxTenants = 10
		goroutines = 50
	)
	r := NewRegistry(RegistryConfig{MaxTenants: maxTenants, QueueLimit: 1})

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, _ = r.GetOrCreate(TenantID(fmt.Sprintf("t%d", i)))
		}(i)
	}
	close(start)
	wg.Wait()

	testutil.AssertEqual(t, r.Len(), maxTenants)
}

func TestRegistry_LookupAndTenants(t *testing.T) {
	r := NewRegistry(RegistryConfig{MaxTenants: 10, QueueLimit: 1})

	if _, ok := r.Lookup("x"); ok {
		t.Fatal("lookup must not create tenants")
	}
	testutil.AssertEqual(t, r.Len(), 0)

	for _, id := range []TenantID{"c", "a", "b"} {
		_, err := r.GetOrCreate(id)
		testutil.AssertNoError(t, err)
	}
	testutil.AssertSliceEqual(t, r.Tenants(), []TenantID{"a", "b", "c"})

	var seen []TenantID
	r.Range(func(e *Entry) bool {
		seen = append(seen, e.ID())
		return e.ID() != "b"
	})
	testutil.AssertSliceEqual(t, seen, []TenantID{"a", "b"})
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry(RegistryConfig{MaxTenants: 10, QueueLimit: 4})

	e, err := r.GetOrCreate("a")
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, e.Do(func(q *TimestampQueue) error {
		return q.Append(1)
	}))

	r.Close()
	r.Close()

	testutil.AssertEqual(t, r.Len(), 0)
	testutil.AssertErrorIs(t, e.Do(func(*TimestampQueue) error { return nil }), gferrors.ErrClosed)

	_, err = r.GetOrCreate("a")
	testutil.AssertErrorIs(t, err, gferrors.ErrClosed)
}
