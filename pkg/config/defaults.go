package config

import "time"

// Default values for configuration fields.
const (
	// Limiter defaults
	DefaultWindow      = 10 * time.Second
	DefaultMaxRequests = 10
	DefaultMaxTenants  = 100

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	// Metrics defaults
	DefaultMetricsNamespace = "tenantgate"
	DefaultMetricsPath      = "/metrics"
	DefaultLimiterName      = "default"

	// Report defaults
	DefaultReportSchedule = "@every 10s"
	DefaultReportTimeout  = 5 * time.Second
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "tenantgate:usage:"
	DefaultRedisTTL       = time.Minute

	// Simulate defaults
	DefaultSimulateWorkers  = 5
	DefaultSimulateRequests = 200
	DefaultSimulateTenants  = 3
	DefaultSimulateStep     = 300 * time.Millisecond
	DefaultSimulatePattern  = "round-robin"
	DefaultSimulateSeed     = 1

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// ApplyDefaults fills every unset field of cfg with its default value.
func ApplyDefaults(cfg *Config) {
	if cfg.Limiter.Window == 0 {
		cfg.Limiter.Window = DefaultWindow
	}
	if cfg.Limiter.MaxRequests == nil {
		n := DefaultMaxRequests
		cfg.Limiter.MaxRequests = &n
	}
	if cfg.Limiter.MaxTenants == 0 {
		cfg.Limiter.MaxTenants = DefaultMaxTenants
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.LimiterName == "" {
		cfg.Metrics.LimiterName = DefaultLimiterName
	}

	if cfg.Report.Schedule == "" {
		cfg.Report.Schedule = DefaultReportSchedule
	}
	if cfg.Report.Timeout == 0 {
		cfg.Report.Timeout = DefaultReportTimeout
	}
	if len(cfg.Report.Sinks) == 0 {
		cfg.Report.Sinks = []string{"log"}
	}
	if cfg.Report.Redis.Addr == "" {
		cfg.Report.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Report.Redis.KeyPrefix == "" {
		cfg.Report.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Report.Redis.TTL == 0 {
		cfg.Report.Redis.TTL = DefaultRedisTTL
	}

	if cfg.Simulate.Workers == 0 {
		cfg.Simulate.Workers = DefaultSimulateWorkers
	}
	if cfg.Simulate.RequestsPerWorker == 0 {
		cfg.Simulate.RequestsPerWorker = DefaultSimulateRequests
	}
	if cfg.Simulate.Tenants == 0 {
		cfg.Simulate.Tenants = DefaultSimulateTenants
	}
	if cfg.Simulate.Step == 0 {
		cfg.Simulate.Step = DefaultSimulateStep
	}
	if cfg.Simulate.Pattern == "" {
		cfg.Simulate.Pattern = DefaultSimulatePattern
	}
	if cfg.Simulate.Seed == 0 {
		cfg.Simulate.Seed = DefaultSimulateSeed
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
