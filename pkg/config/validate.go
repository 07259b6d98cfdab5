package config

import (
	"fmt"
	"strings"

	"github.com/vnykmshr/tenantgate/internal/logging"
	"github.com/vnykmshr/tenantgate/pkg/common/validation"
	"github.com/vnykmshr/tenantgate/pkg/report"
	"github.com/vnykmshr/tenantgate/pkg/simulate"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "limiter.window").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// listing every problem, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLimiter(cfg)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validateReport(&cfg.Report)...)
	errs = append(errs, validateSimulate(&cfg.Simulate)...)
	errs = append(errs, validateServer(&cfg.Server)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// fieldError converts a library validation error into a FieldError.
func fieldError(field string, err error) FieldError {
	return FieldError{Field: field, Message: err.Error()}
}

func validateLimiter(cfg *Config) []FieldError {
	var errs []FieldError
	lc := cfg.LimiterConfig()

	if err := validation.ValidateMillisecondDuration("config", "window", lc.Window); err != nil {
		errs = append(errs, fieldError("limiter.window", err))
	}
	if err := validation.ValidateNonNegative("config", "max_requests", lc.MaxRequests); err != nil {
		errs = append(errs, fieldError("limiter.max_requests", err))
	}
	if err := validation.ValidatePositive("config", "max_tenants", lc.MaxTenants); err != nil {
		errs = append(errs, fieldError("limiter.max_tenants", err))
	}
	return errs
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError
	if _, err := logging.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, fieldError("logging.level", err))
	}
	if _, err := logging.ParseFormat(cfg.Format); err != nil {
		errs = append(errs, fieldError("logging.format", err))
	}
	return errs
}

func validateMetrics(cfg *MetricsConfig) []FieldError {
	var errs []FieldError
	if !strings.HasPrefix(cfg.Path, "/") {
		errs = append(errs, FieldError{Field: "metrics.path", Message: "must start with /"})
	}
	return errs
}

func validateReport(cfg *ReportConfig) []FieldError {
	var errs []FieldError

	if _, err := report.ParseSchedule(cfg.Schedule); err != nil {
		errs = append(errs, fieldError("report.schedule", err))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "report.timeout", Message: "cannot be negative"})
	}

	usesRedis := false
	for i, sink := range cfg.Sinks {
		if err := validation.ValidateOneOf("config", "sink", sink, "log", "metrics", "redis"); err != nil {
			errs = append(errs, fieldError(fmt.Sprintf("report.sinks[%d]", i), err))
		}
		usesRedis = usesRedis || sink == "redis"
	}

	if usesRedis {
		if err := validation.ValidateNotEmpty("config", "addr", cfg.Redis.Addr); err != nil {
			errs = append(errs, fieldError("report.redis.addr", err))
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{Field: "report.redis.db", Message: "cannot be negative"})
		}
		if cfg.Redis.TTL < 0 {
			errs = append(errs, FieldError{Field: "report.redis.ttl", Message: "cannot be negative"})
		}
	}
	return errs
}

func validateSimulate(cfg *SimulateConfig) []FieldError {
	var errs []FieldError
	if err := validation.ValidatePositive("config", "workers", cfg.Workers); err != nil {
		errs = append(errs, fieldError("simulate.workers", err))
	}
	if err := validation.ValidatePositive("config", "requests_per_worker", cfg.RequestsPerWorker); err != nil {
		errs = append(errs, fieldError("simulate.requests_per_worker", err))
	}
	if err := validation.ValidatePositive("config", "tenants", cfg.Tenants); err != nil {
		errs = append(errs, fieldError("simulate.tenants", err))
	}
	if cfg.Step < 0 {
		errs = append(errs, FieldError{Field: "simulate.step", Message: "cannot be negative"})
	}
	if _, err := simulate.ParsePattern(cfg.Pattern); err != nil {
		errs = append(errs, fieldError("simulate.pattern", err))
	}
	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError
	if err := validation.ValidateNotEmpty("config", "listen_address", cfg.ListenAddress); err != nil {
		errs = append(errs, fieldError("server.listen_address", err))
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "cannot be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "cannot be negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "cannot be negative"})
	}
	return errs
}
