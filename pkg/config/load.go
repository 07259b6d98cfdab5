package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at path, applies defaults and
// validates the result. Environment variables are not consulted; use
// LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration, applies defaults and validates it.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path starts from the defaults.
// Environment variables always take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies TENANTGATE_SECTION_FIELD variables to cfg.
// Malformed values are reported rather than ignored.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []FieldError

	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, FieldError{Field: name, Message: err.Error()})
				return
			}
			*dst = d
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, FieldError{Field: name, Message: "must be an integer"})
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, FieldError{Field: name, Message: "must be a boolean"})
				return
			}
			*dst = b
		}
	}

	// Limiter overrides
	dur("TENANTGATE_WINDOW", &cfg.Limiter.Window)
	if v, ok := lookup("TENANTGATE_MAX_REQUESTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, FieldError{Field: "TENANTGATE_MAX_REQUESTS", Message: "must be an integer"})
		} else {
			cfg.Limiter.MaxRequests = &n
		}
	}
	integer("TENANTGATE_MAX_TENANTS", &cfg.Limiter.MaxTenants)

	// Logging overrides
	str("TENANTGATE_LOG_LEVEL", &cfg.Logging.Level)
	str("TENANTGATE_LOG_FORMAT", &cfg.Logging.Format)

	// Report overrides
	boolean("TENANTGATE_REPORT_ENABLED", &cfg.Report.Enabled)
	str("TENANTGATE_REPORT_SCHEDULE", &cfg.Report.Schedule)
	if v, ok := lookup("TENANTGATE_REPORT_SINKS"); ok && v != "" {
		cfg.Report.Sinks = splitList(v)
	}
	str("TENANTGATE_REDIS_ADDR", &cfg.Report.Redis.Addr)
	str("TENANTGATE_REDIS_PASSWORD", &cfg.Report.Redis.Password)
	integer("TENANTGATE_REDIS_DB", &cfg.Report.Redis.DB)

	// Server overrides
	str("TENANTGATE_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
