package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/tenantgate/pkg/clock"
	"github.com/vnykmshr/tenantgate/pkg/config"
	"github.com/vnykmshr/tenantgate/pkg/metrics"
	"github.com/vnykmshr/tenantgate/pkg/ratelimit/window"
	"github.com/vnykmshr/tenantgate/pkg/report"
)

var serveFlags struct {
	listenAddress string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve admission checks over HTTP",
	Long: `Start an HTTP server answering admission checks:

  GET /v1/check?tenant=ID   200 allowed, 429 denied, 400 invalid tenant,
                            503 tenant capacity exceeded
  GET /v1/usage?tenant=ID   current window usage, records nothing
  GET /metrics              Prometheus metrics

When report.enabled is set, usage snapshots are published on report.schedule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveFlags.listenAddress != "" {
			cfg.Server.ListenAddress = serveFlags.listenAddress
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
}

// serve runs the admission server until ctx is done.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg := metrics.NewRegistryWithConfig(metrics.Config{
		Enabled:   true,
		Registry:  promReg,
		Namespace: cfg.Metrics.Namespace,
	})

	lc := cfg.LimiterConfig()
	lc.Clock = clock.NewSystem()
	lc.Logger = logger
	base, err := window.NewWithConfigSafe(lc)
	if err != nil {
		return err
	}
	limiter := window.NewMetricsLimiter(base, cfg.Metrics.LimiterName, reg)
	defer limiter.Close()

	if cfg.Report.Enabled {
		reporter, err := newReporter(ctx, cfg, limiter, reg, logger)
		if err != nil {
			return err
		}
		if err := reporter.Start(); err != nil {
			return err
		}
		defer func() {
			if err := reporter.Close(); err != nil {
				logger.Warn("closing report sinks", slog.String("error", err.Error()))
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg}))
	mux.Handle("/", newAdmissionHandler(limiter, logger))

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			slog.String("addr", srv.Addr),
			slog.Duration("window", lc.Window),
			slog.Int("max_requests", lc.MaxRequests),
			slog.Int("max_tenants", lc.MaxTenants))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	return <-errCh
}

// newReporter builds a reporter with the sinks named in cfg.Report.Sinks.
func newReporter(ctx context.Context, cfg *config.Config, limiter window.Limiter, reg *metrics.Registry, logger *slog.Logger) (*report.Reporter, error) {
	var sinks []report.Sink
	for _, name := range cfg.Report.Sinks {
		switch name {
		case "log":
			sinks = append(sinks, report.NewLogSink(logger))
		case "metrics":
			sinks = append(sinks, report.NewMetricsSink(reg, cfg.Metrics.LimiterName))
		case "redis":
			sink, err := report.DialRedisSink(ctx, cfg.RedisSinkConfig())
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sink)
		}
	}

	rc := cfg.ReportOptions()
	rc.Limiter = limiter
	rc.Sinks = sinks
	rc.Metrics = reg
	rc.Logger = logger
	return report.New(rc)
}
