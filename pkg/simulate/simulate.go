// Package simulate drives a limiter with synthetic multi-tenant traffic on
// a virtual clock.
//
// Workers issue requests in lockstep rounds. Within a round every worker
// reads the clock once and calls CheckAllowed; between rounds the clock
// advances by Step. Runs are therefore reproducible and finish as fast as
// the limiter allows, with no sleeping.
package simulate

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/vnykmshr/tenantgate/internal/logging"
	"github.com/vnykmshr/tenantgate/pkg/clock"
	gferrors "github.com/vnykmshr/tenantgate/pkg/common/errors"
	"github.com/vnykmshr/tenantgate/pkg/common/validation"
	"github.com/vnykmshr/tenantgate/pkg/metrics"
	"github.com/vnykmshr/tenantgate/pkg/ratelimit/window"
)

// Pattern selects which tenant each request is issued for.
type Pattern string

const (
	// RoundRobin cycles every worker through tenants 1, 2, ..., 0.
	RoundRobin Pattern = "round-robin"
	// Random picks a tenant uniformly from a per-worker seeded source.
	Random Pattern = "random"
)

// ParsePattern parses a pattern name. Empty means RoundRobin.
func ParsePattern(s string) (Pattern, error) {
	switch Pattern(s) {
	case RoundRobin, "":
		return RoundRobin, nil
	case Random:
		return Random, nil
	default:
		return "", gferrors.NewValidationError("simulate", "pattern", s, "unsupported value").
			WithHint(`use "round-robin" or "random"`)
	}
}

// Config holds configuration for a simulation run.
type Config struct {
	// Workers is the number of concurrent clients.
	Workers int

	// RequestsPerWorker is the number of requests each client issues.
	RequestsPerWorker int

	// Tenants is the number of distinct tenants, named "0" to "Tenants-1".
	Tenants int

	// Step is how far the virtual clock advances after each round.
	Step time.Duration

	Pattern Pattern

	// Seed makes Random reproducible.
	Seed int64

	// OnDecision, if set, is called for every request. It may be called
	// from several goroutines at once.
	OnDecision func(Event)

	// Metrics counts simulated requests. Nil disables counting.
	Metrics *metrics.Registry

	// Logger receives run start and end records. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns five workers issuing two hundred requests each
// across three tenants, 300ms apart.
func DefaultConfig() Config {
	return Config{
		Workers:           5,
		RequestsPerWorker: 200,
		Tenants:           3,
		Step:              300 * time.Millisecond,
		Pattern:           RoundRobin,
		Seed:              1,
	}
}

// Event describes one simulated request.
type Event struct {
	Worker   int
	Request  int
	Tenant   window.TenantID
	Now      window.Timestamp
	Decision window.Decision
	Err      error
}

// Summary counts outcomes for one tenant.
type Summary struct {
	Allowed int
	Denied  int
	Errors  int
}

// Total returns the number of requests the summary covers.
func (s Summary) Total() int {
	return s.Allowed + s.Denied + s.Errors
}

// TenantSummary pairs a tenant with its outcome counts.
type TenantSummary struct {
	Tenant window.TenantID
	Summary
}

// Result is the outcome of a run.
type Result struct {
	// Tenants holds one summary per tenant that received requests, sorted by id.
	Tenants []TenantSummary

	// Rounds is the number of completed rounds.
	Rounds int

	// Start and End are the virtual clock readings bracketing the run.
	Start window.Timestamp
	End   window.Timestamp
}

// Totals sums every tenant's summary.
func (r Result) Totals() Summary {
	var s Summary
	for _, ts := range r.Tenants {
		s.Allowed += ts.Allowed
		s.Denied += ts.Denied
		s.Errors += ts.Errors
	}
	return s
}

func (c *Config) validate() error {
	if err := validation.ValidatePositive("simulate", "workers", c.Workers); err != nil {
		return err
	}
	if err := validation.ValidatePositive("simulate", "requests_per_worker", c.RequestsPerWorker); err != nil {
		return err
	}
	if err := validation.ValidatePositive("simulate", "tenants", c.Tenants); err != nil {
		return err
	}
	if c.Step < 0 {
		return gferrors.NewValidationError("simulate", "step", c.Step, "cannot be negative")
	}
	p, err := ParsePattern(string(c.Pattern))
	if err != nil {
		return err
	}
	c.Pattern = p
	return nil
}

// Run drives limiter with cfg's traffic, reading time from clk. The limiter
// should be configured with the same clock for Allow and Usage to agree.
// Run stops between rounds when ctx is cancelled and returns the partial
// result with ctx.Err().
func Run(ctx context.Context, limiter window.Limiter, clk *clock.Manual, cfg Config) (Result, error) {
	if limiter == nil {
		return Result{}, validation.ValidateNotNil("simulate", "limiter", nil)
	}
	if clk == nil {
		return Result{}, validation.ValidateNotNil("simulate", "clock", nil)
	}
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &sim{
		cfg:     cfg,
		limiter: limiter,
		clock:   clk,
		counts:  make(map[window.TenantID]*Summary),
	}
	res := Result{Start: window.Timestamp(clk.NowMillis())}

	logger.Info("simulation started",
		slog.Int("workers", cfg.Workers),
		slog.Int("requests_per_worker", cfg.RequestsPerWorker),
		slog.Int("tenants", cfg.Tenants),
		slog.Duration("step", cfg.Step),
		slog.String("pattern", string(cfg.Pattern)))

	rounds, err := s.run(ctx)

	res.Rounds = rounds
	res.End = window.Timestamp(clk.NowMillis())
	res.Tenants = s.summaries()

	totals := res.Totals()
	logger.Info("simulation finished",
		slog.Int("rounds", rounds),
		slog.Int("allowed", totals.Allowed),
		slog.Int("denied", totals.Denied),
		slog.Int("errors", totals.Errors))

	if err != nil {
		return res, fmt.Errorf("simulate: stopped after %d rounds: %w", rounds, err)
	}
	return res, nil
}

// sim holds the shared state of one run.
type sim struct {
	cfg     Config
	limiter window.Limiter
	clock   *clock.Manual

	mu     sync.Mutex
	counts map[window.TenantID]*Summary
}

// run starts the workers and releases them one round at a time.
func (s *sim) run(ctx context.Context) (int, error) {
	var (
		workers sync.WaitGroup
		round   sync.WaitGroup
		gates   = make([]chan int, s.cfg.Workers)
	)
	for w := range gates {
		gates[w] = make(chan int)
		workers.Add(1)
		go func(w int) {
			defer workers.Done()
			s.worker(w, gates[w], &round)
		}(w)
	}
	defer func() {
		for _, g := range gates {
			close(g)
		}
		workers.Wait()
	}()

	for r := 0; r < s.cfg.RequestsPerWorker; r++ {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		round.Add(s.cfg.Workers)
		for _, g := range gates {
			g <- r
		}
		round.Wait()
		s.clock.Advance(s.cfg.Step)
	}
	return s.cfg.RequestsPerWorker, nil
}

// worker issues one request per value received on gate.
func (s *sim) worker(w int, gate <-chan int, round *sync.WaitGroup) {
	rng := rand.New(rand.NewPCG(uint64(s.cfg.Seed), uint64(w)))
	for r := range gate {
		tenant := s.pick(rng, r)
		now := window.Timestamp(s.clock.NowMillis())
		decision, err := s.limiter.CheckAllowed(tenant, now)
		s.record(tenant, decision, err)
		if s.cfg.OnDecision != nil {
			s.cfg.OnDecision(Event{
				Worker:   w,
				Request:  r,
				Tenant:   tenant,
				Now:      now,
				Decision: decision,
				Err:      err,
			})
		}
		round.Done()
	}
}

func (s *sim) pick(rng *rand.Rand, r int) window.TenantID {
	if s.cfg.Pattern == Random {
		return window.TenantIDFromInt(rng.IntN(s.cfg.Tenants))
	}
	return window.TenantIDFromInt((r + 1) % s.cfg.Tenants)
}

func (s *sim) record(tenant window.TenantID, decision window.Decision, err error) {
	label := decision.String()
	if err != nil {
		label = "error"
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SimulatedRequests.WithLabelValues(string(tenant), label).Inc()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sum, ok := s.counts[tenant]
	if !ok {
		sum = &Summary{}
		s.counts[tenant] = sum
	}
	switch {
	case err != nil:
		sum.Errors++
	case decision == window.Allowed:
		sum.Allowed++
	default:
		sum.Denied++
	}
}

func (s *sim) summaries() []TenantSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TenantSummary, 0, len(s.counts))
	for tenant, sum := range s.counts {
		out = append(out, TenantSummary{Tenant: tenant, Summary: *sum})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Tenant < out[j].Tenant
	})
	return out
}
