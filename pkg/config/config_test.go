package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/tenantgate/internal/testutil"
	"github.com/vnykmshr/tenantgate/pkg/simulate"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenantgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeConfig(t, `
limiter:
  window: 30s
  max_requests: 50
  max_tenants: 500

logging:
  level: debug
  format: json

report:
  enabled: true
  schedule: "*/5 * * * * *"
  sinks: [log, redis]
  redis:
    addr: "redis:6379"
    key_prefix: "tg:"
    ttl: 2m

simulate:
  workers: 8
  pattern: random
  seed: 7

server:
  listen_address: ":9090"
`)

	cfg, err := Load(path)
	testutil.AssertNoError(t, err)

	lc := cfg.LimiterConfig()
	testutil.AssertEqual(t, lc.Window, 30*time.Second)
	testutil.AssertEqual(t, lc.MaxRequests, 50)
	testutil.AssertEqual(t, lc.MaxTenants, 500)

	testutil.AssertEqual(t, cfg.Logging.Level, "debug")
	testutil.AssertEqual(t, cfg.Logging.Format, "json")

	testutil.AssertEqual(t, cfg.Report.Enabled, true)
	testutil.AssertSliceEqual(t, cfg.Report.Sinks, []string{"log", "redis"})
	rc := cfg.RedisSinkConfig()
	testutil.AssertEqual(t, rc.Addr, "redis:6379")
	testutil.AssertEqual(t, rc.KeyPrefix, "tg:")
	testutil.AssertEqual(t, rc.TTL, 2*time.Minute)
	testutil.AssertEqual(t, cfg.ReportOptions().Schedule, "*/5 * * * * *")

	sc := cfg.SimulateOptions()
	testutil.AssertEqual(t, sc.Workers, 8)
	testutil.AssertEqual(t, sc.Pattern, simulate.Random)
	testutil.AssertEqual(t, sc.Seed, int64(7))
	testutil.AssertEqual(t, sc.RequestsPerWorker, DefaultSimulateRequests)

	testutil.AssertEqual(t, cfg.Server.ListenAddress, ":9090")
	testutil.AssertEqual(t, cfg.Server.ShutdownTimeout, DefaultShutdownTimeout)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	testutil.AssertNoError(t, err)

	lc := cfg.LimiterConfig()
	testutil.AssertEqual(t, lc.Window, DefaultWindow)
	testutil.AssertEqual(t, lc.MaxRequests, DefaultMaxRequests)
	testutil.AssertEqual(t, lc.MaxTenants, DefaultMaxTenants)
	testutil.AssertEqual(t, cfg.Report.Schedule, DefaultReportSchedule)
	testutil.AssertSliceEqual(t, cfg.Report.Sinks, []string{"log"})
	testutil.AssertEqual(t, cfg.Metrics.Path, DefaultMetricsPath)

	sc := cfg.SimulateOptions()
	testutil.AssertEqual(t, sc.Workers, 5)
	testutil.AssertEqual(t, sc.RequestsPerWorker, 200)
	testutil.AssertEqual(t, sc.Tenants, 3)
	testutil.AssertEqual(t, sc.Step, 300*time.Millisecond)
	testutil.AssertEqual(t, sc.Pattern, simulate.RoundRobin)
}

func TestLoad_ZeroMaxRequestsIsKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "limiter:\n  max_requests: 0\n"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.LimiterConfig().MaxRequests, 0)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"negative max requests", "limiter:\n  max_requests: -1\n", "limiter.max_requests"},
		{"negative max tenants", "limiter:\n  max_tenants: -5\n", "limiter.max_tenants"},
		{"sub-millisecond window", "limiter:\n  window: 500us\n", "limiter.window"},
		{"bad log level", "logging:\n  level: loud\n", "logging.level"},
		{"bad log format", "logging:\n  format: xml\n", "logging.format"},
		{"bad metrics path", "metrics:\n  path: metrics\n", "metrics.path"},
		{"bad schedule", "report:\n  schedule: sometimes\n", "report.schedule"},
		{"bad sink", "report:\n  sinks: [kafka]\n", "report.sinks[0]"},
		{"bad pattern", "simulate:\n  pattern: zipf\n", "simulate.pattern"},
		{"negative workers", "simulate:\n  workers: -1\n", "simulate.workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			testutil.AssertError(t, err)

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error for %s, got %v", tt.field, err)
			}
		})
	}
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "limiter:\n  windw: 10s\n"))
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "windw") {
		t.Errorf("error should name the unknown field: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	testutil.AssertErrorIs(t, err, os.ErrNotExist)
}

func TestValidationError_Multiple(t *testing.T) {
	_, err := Parse([]byte("limiter:\n  max_tenants: -1\nlogging:\n  level: loud\n"))
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "2 errors") {
		t.Errorf("expected both errors to be reported: %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"TENANTGATE_WINDOW":                "1m",
		"TENANTGATE_MAX_REQUESTS":          "0",
		"TENANTGATE_MAX_TENANTS":           "7",
		"TENANTGATE_LOG_LEVEL":             "warn",
		"TENANTGATE_REPORT_ENABLED":        "true",
		"TENANTGATE_REPORT_SINKS":          "log, metrics",
		"TENANTGATE_REDIS_ADDR":            "cache:6380",
		"TENANTGATE_SERVER_LISTEN_ADDRESS": ":7000",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	testutil.AssertNoError(t, applyEnvOverrides(cfg, lookup))

	lc := cfg.LimiterConfig()
	testutil.AssertEqual(t, lc.Window, time.Minute)
	testutil.AssertEqual(t, lc.MaxRequests, 0)
	testutil.AssertEqual(t, lc.MaxTenants, 7)
	testutil.AssertEqual(t, cfg.Logging.Level, "warn")
	testutil.AssertEqual(t, cfg.Report.Enabled, true)
	testutil.AssertSliceEqual(t, cfg.Report.Sinks, []string{"log", "metrics"})
	testutil.AssertEqual(t, cfg.Report.Redis.Addr, "cache:6380")
	testutil.AssertEqual(t, cfg.Server.ListenAddress, ":7000")
}

func TestApplyEnvOverrides_Malformed(t *testing.T) {
	env := map[string]string{
		"TENANTGATE_WINDOW":         "soon",
		"TENANTGATE_MAX_REQUESTS":   "many",
		"TENANTGATE_REPORT_ENABLED": "perhaps",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	err := applyEnvOverrides(Default(), lookup)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	testutil.AssertEqual(t, len(verr.Errors), 3)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("TENANTGATE_MAX_TENANTS", "3")
	t.Setenv("TENANTGATE_LOG_FORMAT", "json")

	path := writeConfig(t, "limiter:\n  max_tenants: 50\n")
	cfg, err := LoadWithEnvOverrides(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Limiter.MaxTenants, 3)
	testutil.AssertEqual(t, cfg.Logging.Format, "json")

	cfg, err = LoadWithEnvOverrides("")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Limiter.MaxTenants, 3)

	t.Setenv("TENANTGATE_MAX_TENANTS", "0")
	_, err = LoadWithEnvOverrides(path)
	testutil.AssertError(t, err)
}
