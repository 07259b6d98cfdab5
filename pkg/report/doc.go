/*
Package report publishes periodic snapshots of a limiter's per-tenant usage.

A Reporter reads every tenant's window through window.Limiter.Snapshot on a
cron schedule and hands the resulting Report to one or more sinks:

	reporter, err := report.New(report.Config{
		Limiter:  limiter,
		Schedule: "@every 10s",
		Sinks:    []report.Sink{report.NewLogSink(logger)},
	})
	if err != nil {
		return err
	}
	if err := reporter.Start(); err != nil {
		return err
	}
	defer func() { <-reporter.Stop().Done() }()

LogSink writes one record per tenant, MetricsSink mirrors usage into
Prometheus gauges and RedisSink stores one hash per tenant for dashboards.
Reports are read-only views: nothing published is ever read back into a
limiter.

A failing sink is logged and counted; it never stops the reporter or the
other sinks.
*/
package report
