package window

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/vnykmshr/tenantgate/internal/logging"
	gferrors "github.com/vnykmshr/tenantgate/pkg/common/errors"
)

// Entry is one tenant's queue together with the lock that guards it.
// The queue is reachable only inside Do.
type Entry struct {
	mu       sync.Mutex
	id       TenantID
	queue    *TimestampQueue
	released bool
}

// ID returns the tenant this entry belongs to.
func (e *Entry) ID() TenantID {
	return e.id
}

// Do runs fn with exclusive access to the tenant's queue. It returns
// ErrClosed if the registry has released the queue.
func (e *Entry) Do(fn func(q *TimestampQueue) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return gferrors.ErrClosed
	}
	return fn(e.queue)
}

func (e *Entry) release() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue.Release()
	e.released = true
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// MaxTenants bounds the number of distinct tenants.
	MaxTenants int

	// QueueLimit is the allocation ceiling handed to each new queue.
	QueueLimit int

	// Logger receives tenant creation and rejection events. Nil discards them.
	Logger *slog.Logger
}

// Registry owns one TimestampQueue per tenant. Steady-state lookups share
// a read lock; only the creation path takes the write lock, and it never
// holds a tenant's lock while doing so.
type Registry struct {
	mu         sync.RWMutex
	entries    map[TenantID]*Entry
	maxTenants int
	queueLimit int
	logger     *slog.Logger
	closed     bool
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		entries:    make(map[TenantID]*Entry),
		maxTenants: cfg.MaxTenants,
		queueLimit: cfg.QueueLimit,
		logger:     logger,
	}
}

// GetOrCreate returns the tenant's entry, creating it on first use.
// Concurrent first calls for the same tenant observe the same entry.
func (r *Registry) GetOrCreate(id TenantID) (*Entry, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, gferrors.ErrClosed
	}
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, gferrors.ErrClosed
	}
	// Another caller may have created it between the two locks.
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	if len(r.entries) >= r.maxTenants {
		r.logger.Warn("tenant registry full",
			slog.String("tenant", string(id)),
			slog.Int("max_tenants", r.maxTenants))
		return nil, gferrors.ErrCapacityExceeded
	}

	e = &Entry{id: id, queue: NewTimestampQueue(r.queueLimit)}
	r.entries[id] = e
	r.logger.Debug("tenant registered",
		slog.String("tenant", string(id)),
		slog.Int("tenants", len(r.entries)))
	return e, nil
}

// Lookup returns the tenant's entry without creating one.
func (r *Registry) Lookup(id TenantID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	return e, ok
}

// Len returns the number of registered tenants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Tenants returns the registered tenant ids in sorted order.
func (r *Registry) Tenants() []TenantID {
	entries := r.sortedEntries()
	ids := make([]TenantID, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

// Range calls fn for every entry in tenant order. The registry lock is not
// held while fn runs, so fn may call Entry.Do.
func (r *Registry) Range(fn func(e *Entry) bool) {
	for _, e := range r.sortedEntries() {
		if !fn(e) {
			return
		}
	}
}

// Close releases every queue. Later calls to GetOrCreate return ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for id, e := range r.entries {
		e.release()
		delete(r.entries, id)
	}
}

func (r *Registry) sortedEntries() []*Entry {
	r.mu.RLock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].id < entries[j].id
	})
	return entries
}
