package report

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/tenantgate/pkg/ratelimit/window"
)

// Report is a point-in-time view of a limiter's tenants.
type Report struct {
	// InstanceID identifies the process that produced the report.
	InstanceID string

	// GeneratedAt is the wall-clock time the report was built.
	GeneratedAt time.Time

	// Now is the limiter clock reading the usage was computed at.
	Now window.Timestamp

	Window      time.Duration
	MaxRequests int

	// Tenants holds one entry per registered tenant, sorted by id.
	Tenants []window.TenantUsage
}

// Throttled returns the tenants with no remaining quota.
func (r Report) Throttled() []window.TenantID {
	var out []window.TenantID
	for _, tu := range r.Tenants {
		if tu.Remaining == 0 {
			out = append(out, tu.Tenant)
		}
	}
	return out
}

// Sink receives reports.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Publish delivers one report. It must honor ctx cancellation.
	Publish(ctx context.Context, r Report) error

	// Close releases resources held by the sink.
	Close() error
}

// scheduleParser accepts five or six field cron specs and descriptors such
// as "@every 10s".
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a cron spec the way Reporter does.
func ParseSchedule(spec string) (cron.Schedule, error) {
	return scheduleParser.Parse(spec)
}
