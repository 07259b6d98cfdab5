package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/tenantgate/pkg/clock"
	"github.com/vnykmshr/tenantgate/pkg/config"
	"github.com/vnykmshr/tenantgate/pkg/ratelimit/window"
	"github.com/vnykmshr/tenantgate/pkg/report"
	"github.com/vnykmshr/tenantgate/pkg/simulate"
)

var simulateFlags struct {
	workers  int
	requests int
	tenants  int
	step     time.Duration
	pattern  string
	seed     int64
	trace    bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay synthetic multi-tenant traffic on a virtual clock",
	Long: `Run concurrent workers against a fresh limiter. Each worker issues its
requests in lockstep rounds; the virtual clock advances by --step between
rounds, so a run is reproducible and never sleeps.

Examples:
  # Five workers, 200 requests each, three tenants, 300ms apart
  tenantgate simulate

  # Random tenant choice with a fixed seed, printing every decision
  tenantgate simulate --pattern random --seed 42 --trace`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applySimulateFlags(cmd, cfg)

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		return runSimulation(cmd.Context(), cfg, logger, cmd.OutOrStdout(), simulateFlags.trace)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	f := simulateCmd.Flags()
	f.IntVarP(&simulateFlags.workers, "workers", "w", 0, "number of concurrent workers")
	f.IntVarP(&simulateFlags.requests, "requests", "n", 0, "requests issued by each worker")
	f.IntVarP(&simulateFlags.tenants, "tenants", "t", 0, "number of distinct tenants")
	f.DurationVar(&simulateFlags.step, "step", 0, "virtual time between rounds")
	f.StringVar(&simulateFlags.pattern, "pattern", "", "tenant selection: round-robin or random")
	f.Int64Var(&simulateFlags.seed, "seed", 0, "seed for the random pattern")
	f.BoolVar(&simulateFlags.trace, "trace", false, "print every decision")
}

// applySimulateFlags copies explicitly set flags over the configuration.
func applySimulateFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Simulate.Workers = simulateFlags.workers
	}
	if f.Changed("requests") {
		cfg.Simulate.RequestsPerWorker = simulateFlags.requests
	}
	if f.Changed("tenants") {
		cfg.Simulate.Tenants = simulateFlags.tenants
	}
	if f.Changed("step") {
		cfg.Simulate.Step = simulateFlags.step
	}
	if f.Changed("pattern") {
		cfg.Simulate.Pattern = simulateFlags.pattern
	}
	if f.Changed("seed") {
		cfg.Simulate.Seed = simulateFlags.seed
	}
}

// runSimulation builds a limiter on a virtual clock, drives it and prints
// per-tenant totals followed by the final window usage.
func runSimulation(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, trace bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	clk := clock.NewManual(0)
	lc := cfg.LimiterConfig()
	lc.Clock = clk
	lc.Logger = logger

	limiter, err := window.NewWithConfigSafe(lc)
	if err != nil {
		return err
	}
	defer limiter.Close()

	sc := cfg.SimulateOptions()
	sc.Logger = logger
	if trace {
		var mu sync.Mutex
		sc.OnDecision = func(e simulate.Event) {
			mu.Lock()
			defer mu.Unlock()
			if e.Err != nil {
				fmt.Fprintf(out, "[worker %d] t=%d tenant %s - request %d failed: %v\n", e.Worker, e.Now, e.Tenant, e.Request, e.Err)
				return
			}
			fmt.Fprintf(out, "[worker %d] t=%d tenant %s - request %s: %d\n", e.Worker, e.Now, e.Tenant, e.Decision, e.Request)
		}
	}

	res, err := simulate.Run(ctx, limiter, clk, sc)
	if err != nil && res.Rounds == 0 {
		return err
	}

	reporter, rerr := report.New(report.Config{
		Limiter:    limiter,
		Schedule:   cfg.Report.Schedule,
		InstanceID: "simulate",
		Logger:     logger,
	})
	if rerr != nil {
		return rerr
	}
	printSummary(out, res, reporter.Build())
	return err
}

func printSummary(out io.Writer, res simulate.Result, rep report.Report) {
	fmt.Fprintf(out, "\n%d rounds, virtual time %s\n\n", res.Rounds,
		time.Duration(res.End-res.Start)*time.Millisecond)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TENANT\tALLOWED\tDENIED\tERRORS")
	for _, ts := range res.Tenants {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", ts.Tenant, ts.Allowed, ts.Denied, ts.Errors)
	}
	totals := res.Totals()
	fmt.Fprintf(tw, "total\t%d\t%d\t%d\n", totals.Allowed, totals.Denied, totals.Errors)
	_ = tw.Flush()

	fmt.Fprintf(out, "\nwindow %s, max %d requests, at t=%d\n\n", rep.Window, rep.MaxRequests, rep.Now)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TENANT\tIN WINDOW\tREMAINING\tRETRY AFTER")
	for _, tu := range rep.Tenants {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", tu.Tenant, tu.Count, tu.Remaining, tu.RetryAfter)
	}
	_ = tw.Flush()
}
