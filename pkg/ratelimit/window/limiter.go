package window

import (
	"log/slog"
	"time"

	"github.com/vnykmshr/tenantgate/internal/logging"
	"github.com/vnykmshr/tenantgate/pkg/clock"
	"github.com/vnykmshr/tenantgate/pkg/common/validation"
)

// Decision is the outcome of an admission check.
type Decision int

const (
	// Undecided accompanies a non-nil error; no decision was reached.
	Undecided Decision = iota
	// Allowed means the request was admitted and recorded.
	Allowed
	// Denied means the tenant's window is full; nothing was recorded.
	Denied
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	default:
		return "undecided"
	}
}

// Limiter admits or rejects requests per tenant so that no tenant exceeds
// MaxRequests admitted requests within any trailing Window.
type Limiter interface {
	// CheckAllowed decides a request from tenant arriving at now. An allowed
	// request is recorded in the tenant's window; a denied one is not.
	CheckAllowed(tenant TenantID, now Timestamp) (Decision, error)

	// Allow reads the configured clock once and calls CheckAllowed.
	Allow(tenant TenantID) (Decision, error)

	// Usage reports the tenant's window occupancy at now without recording
	// anything. Unknown tenants report an empty window and stay unregistered.
	Usage(tenant TenantID, now Timestamp) (Usage, error)

	// Snapshot reports usage for every registered tenant, sorted by id.
	Snapshot(now Timestamp) []TenantUsage

	// Now returns the configured clock's current reading.
	Now() Timestamp

	// Tenants returns the number of registered tenants.
	Tenants() int

	// Config returns the configuration the limiter was built with.
	Config() Config

	// Close releases every tenant queue. Later calls return ErrClosed.
	Close() error
}

// Usage describes one tenant's window at a point in time.
type Usage struct {
	// Count is the number of admitted requests still inside the window.
	Count int

	// Remaining is how many more requests would be admitted right now.
	Remaining int

	// RetryAfter is how long until the oldest in-window request leaves the
	// window. It is zero unless the tenant is at capacity.
	RetryAfter time.Duration

	// Oldest and Newest bound the in-window requests. Both are zero when
	// Count is zero.
	Oldest Timestamp
	Newest Timestamp
}

// TenantUsage pairs a tenant with its usage.
type TenantUsage struct {
	Tenant TenantID
	Usage
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Window is the length of the sliding window, in whole milliseconds.
	Window time.Duration

	// MaxRequests is the number of requests admitted per tenant per window.
	// Zero denies every request.
	MaxRequests int

	// MaxTenants bounds the number of distinct tenants.
	MaxTenants int

	// Clock supplies timestamps for Allow and Now. If nil, a System clock is used.
	Clock clock.Clock

	// Logger receives tenant lifecycle events. If nil, they are discarded.
	Logger *slog.Logger
}

// DefaultConfig returns a ten second window admitting ten requests for up
// to a hundred tenants.
func DefaultConfig() Config {
	return Config{
		Window:      10 * time.Second,
		MaxRequests: 10,
		MaxTenants:  100,
	}
}

// NewSafe creates a sliding-window limiter with validation that returns an
// error instead of panicking.
func NewSafe(window time.Duration, maxRequests, maxTenants int) (Limiter, error) {
	return NewWithConfigSafe(Config{
		Window:      window,
		MaxRequests: maxRequests,
		MaxTenants:  maxTenants,
	})
}

// NewWithConfigSafe creates a sliding-window limiter from config, returning
// a *errors.ValidationError when a field is out of range.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if err := validation.ValidateMillisecondDuration("window", "window", config.Window); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("window", "max_requests", config.MaxRequests); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("window", "max_tenants", config.MaxTenants); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = clock.NewSystem()
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}

	queueLimit := config.MaxRequests
	if queueLimit < 1 {
		queueLimit = 1
	}

	return &slidingWindow{
		config:   config,
		windowMs: config.Window.Milliseconds(),
		registry: NewRegistry(RegistryConfig{
			MaxTenants: config.MaxTenants,
			QueueLimit: queueLimit,
			Logger:     config.Logger,
		}),
	}, nil
}
