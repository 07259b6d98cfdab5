package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/tenantgate/internal/logging"
	"github.com/vnykmshr/tenantgate/pkg/common/validation"
	"github.com/vnykmshr/tenantgate/pkg/metrics"
	"github.com/vnykmshr/tenantgate/pkg/ratelimit/window"
)

// Config holds configuration for a Reporter.
type Config struct {
	// Limiter is the limiter to report on.
	Limiter window.Limiter

	// Sinks receive every report, in order.
	Sinks []Sink

	// Schedule is a cron spec, e.g. "@every 10s" or "*/5 * * * * *".
	Schedule string

	// Timeout bounds each sink's Publish call. Zero means no bound.
	Timeout time.Duration

	// InstanceID is stamped on every report. Empty generates a random UUID.
	InstanceID string

	// Metrics counts publish outcomes. Nil uses metrics.DefaultRegistry.
	Metrics *metrics.Registry

	// Logger receives publish failures. Nil discards them.
	Logger *slog.Logger
}

// Reporter publishes limiter snapshots on a cron schedule.
type Reporter struct {
	config  Config
	cron    *cron.Cron
	logger  *slog.Logger
	metrics *metrics.Registry

	mu      sync.Mutex
	running bool
}

// New validates config and creates a stopped Reporter.
func New(config Config) (*Reporter, error) {
	if config.Limiter == nil {
		return nil, validation.ValidateNotNil("report", "limiter", nil)
	}
	if err := validation.ValidateNotEmpty("report", "schedule", config.Schedule); err != nil {
		return nil, err
	}
	if _, err := ParseSchedule(config.Schedule); err != nil {
		return nil, fmt.Errorf("report: invalid schedule %q: %w", config.Schedule, err)
	}
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.DefaultRegistry
	}

	return &Reporter{
		config: config,
		cron: cron.New(
			cron.WithParser(scheduleParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger:  config.Logger.With("component", "reporter", "instance", config.InstanceID),
		metrics: config.Metrics,
	}, nil
}

// InstanceID returns the id stamped on reports.
func (r *Reporter) InstanceID() string {
	return r.config.InstanceID
}

// Start schedules publication. It returns an error if already started.
func (r *Reporter) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("report: reporter already running")
	}
	if len(r.cron.Entries()) == 0 {
		if _, err := r.cron.AddFunc(r.config.Schedule, r.runScheduled); err != nil {
			return fmt.Errorf("report: schedule: %w", err)
		}
	}
	r.cron.Start()
	r.running = true

	r.logger.Info("reporter started",
		slog.String("schedule", r.config.Schedule),
		slog.Int("sinks", len(r.config.Sinks)))
	return nil
}

// Stop stops scheduling. The returned context is done once any running
// publication has finished.
func (r *Reporter) Stop() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := r.cron.Stop()
	if r.running {
		r.running = false
		r.logger.Info("reporter stopped")
	}
	return ctx
}

// Running reports whether the schedule is active.
func (r *Reporter) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun returns the next scheduled publication, or the zero time when
// stopped.
func (r *Reporter) NextRun() time.Time {
	if !r.Running() {
		return time.Time{}
	}
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Build snapshots the limiter at its current clock reading.
func (r *Reporter) Build() Report {
	lim := r.config.Limiter
	now := lim.Now()
	cfg := lim.Config()
	return Report{
		InstanceID:  r.config.InstanceID,
		GeneratedAt: time.Now().UTC(),
		Now:         now,
		Window:      cfg.Window,
		MaxRequests: cfg.MaxRequests,
		Tenants:     lim.Snapshot(now),
	}
}

// RunOnce builds one report and hands it to every sink. Sink failures are
// logged and counted; the joined failures are returned after all sinks ran.
func (r *Reporter) RunOnce(ctx context.Context) error {
	rep := r.Build()

	var errs []error
	for _, sink := range r.config.Sinks {
		if err := r.publish(ctx, sink, rep); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Reporter) publish(ctx context.Context, sink Sink, rep Report) error {
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	if err := sink.Publish(ctx, rep); err != nil {
		r.metrics.ReportsTotal.WithLabelValues(sink.Name(), "error").Inc()
		r.logger.Error("publish failed",
			slog.String("sink", sink.Name()),
			slog.String("error", err.Error()))
		return err
	}
	r.metrics.ReportsTotal.WithLabelValues(sink.Name(), "success").Inc()
	return nil
}

func (r *Reporter) runScheduled() {
	// Failures are already logged per sink.
	_ = r.RunOnce(context.Background())
}

// Close stops the reporter, waits for a running publication and closes
// every sink.
func (r *Reporter) Close() error {
	<-r.Stop().Done()

	var errs []error
	for _, sink := range r.config.Sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
