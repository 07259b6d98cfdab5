// Package config loads tenantgate's application configuration.
//
// Configuration is read from a YAML file, completed with defaults, optionally
// overridden from TENANTGATE_* environment variables and then validated as a
// whole, so that every problem is reported at once:
//
//	cfg, err := config.LoadWithEnvOverrides("tenantgate.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	limiter, err := window.NewWithConfigSafe(cfg.LimiterConfig())
//
// The limiter section is read once at startup; quotas are not reloaded while
// the process runs.
package config
