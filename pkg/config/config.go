package config

import (
	"time"

	"github.com/vnykmshr/tenantgate/pkg/ratelimit/window"
	"github.com/vnykmshr/tenantgate/pkg/report"
	"github.com/vnykmshr/tenantgate/pkg/simulate"
)

// Config is the root of the tenantgate configuration file.
type Config struct {
	Limiter  LimiterConfig  `yaml:"limiter"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Report   ReportConfig   `yaml:"report"`
	Simulate SimulateConfig `yaml:"simulate"`
	Server   ServerConfig   `yaml:"server"`
}

// LimiterConfig holds the sliding-window quota shared by every tenant.
type LimiterConfig struct {
	// Window is the sliding window length, e.g. "10s".
	Window time.Duration `yaml:"window"`

	// MaxRequests is the per-tenant quota per window. Nil means the default;
	// an explicit 0 denies everything.
	MaxRequests *int `yaml:"max_requests"`

	// MaxTenants bounds the number of distinct tenants.
	MaxTenants int `yaml:"max_tenants"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
	// LimiterName is the limiter_name label value.
	LimiterName string `yaml:"limiter_name"`
}

// ReportConfig configures periodic usage reports.
type ReportConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Schedule string        `yaml:"schedule"`
	Timeout  time.Duration `yaml:"timeout"`
	// Sinks lists report destinations: "log", "metrics", "redis".
	Sinks []string    `yaml:"sinks"`
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis report sink.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// SimulateConfig configures the traffic simulator.
type SimulateConfig struct {
	Workers           int           `yaml:"workers"`
	RequestsPerWorker int           `yaml:"requests_per_worker"`
	Tenants           int           `yaml:"tenants"`
	Step              time.Duration `yaml:"step"`
	Pattern           string        `yaml:"pattern"`
	Seed              int64         `yaml:"seed"`
}

// ServerConfig configures the HTTP admission endpoint.
type ServerConfig struct {
	ListenAddress   string        `yaml:"listen_address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LimiterConfig returns the window.Config described by the limiter section.
// Clock and Logger are left for the caller to set.
func (c *Config) LimiterConfig() window.Config {
	maxRequests := DefaultMaxRequests
	if c.Limiter.MaxRequests != nil {
		maxRequests = *c.Limiter.MaxRequests
	}
	return window.Config{
		Window:      c.Limiter.Window,
		MaxRequests: maxRequests,
		MaxTenants:  c.Limiter.MaxTenants,
	}
}

// ReportOptions returns the report.Config fields that come from the file.
// Limiter, Sinks and Logger are left for the caller to set.
func (c *Config) ReportOptions() report.Config {
	return report.Config{
		Schedule: c.Report.Schedule,
		Timeout:  c.Report.Timeout,
	}
}

// RedisSinkConfig returns the report.RedisSinkConfig for the redis section.
func (c *Config) RedisSinkConfig() report.RedisSinkConfig {
	return report.RedisSinkConfig{
		Addr:      c.Report.Redis.Addr,
		Password:  c.Report.Redis.Password,
		DB:        c.Report.Redis.DB,
		KeyPrefix: c.Report.Redis.KeyPrefix,
		TTL:       c.Report.Redis.TTL,
	}
}

// SimulateOptions returns the simulate.Config described by the simulate section.
func (c *Config) SimulateOptions() simulate.Config {
	return simulate.Config{
		Workers:           c.Simulate.Workers,
		RequestsPerWorker: c.Simulate.RequestsPerWorker,
		Tenants:           c.Simulate.Tenants,
		Step:              c.Simulate.Step,
		Pattern:           simulate.Pattern(c.Simulate.Pattern),
		Seed:              c.Simulate.Seed,
	}
}
