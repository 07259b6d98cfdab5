package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/tenantgate/pkg/ratelimit/window"
)

// RedisSinkConfig configures a RedisSink.
type RedisSinkConfig struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix is prepended to the tenant id to form each hash key.
	KeyPrefix string

	// TTL expires tenant hashes that stop being refreshed. Zero keeps them.
	TTL time.Duration
}

// RedisSink stores each tenant's usage in a Redis hash:
//
//	HSET <prefix><tenant> count remaining retry_after_ms oldest newest generated_at instance
//
// Hashes are written with one pipeline per report.
type RedisSink struct {
	client redis.Cmdable
	closer func() error
	cfg    RedisSinkConfig
}

// NewRedisSink creates a sink writing through client. The caller keeps
// ownership of client.
func NewRedisSink(client redis.Cmdable, cfg RedisSinkConfig) *RedisSink {
	return &RedisSink{client: client, cfg: cfg, closer: func() error { return nil }}
}

// DialRedisSink connects to cfg.Addr and verifies the connection with PING.
func DialRedisSink(ctx context.Context, cfg RedisSinkConfig) (*RedisSink, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis sink: ping %s: %w", cfg.Addr, err)
	}

	s := NewRedisSink(rdb, cfg)
	s.closer = rdb.Close
	return s, nil
}

// Name returns "redis".
func (s *RedisSink) Name() string { return "redis" }

// Key returns the hash key for tenant.
func (s *RedisSink) Key(tenant window.TenantID) string {
	return s.cfg.KeyPrefix + string(tenant)
}

// Publish writes every tenant's hash in a single pipeline.
func (s *RedisSink) Publish(ctx context.Context, r Report) error {
	if len(r.Tenants) == 0 {
		return nil
	}

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, tu := range r.Tenants {
			key := s.Key(tu.Tenant)
			pipe.HSet(ctx, key, usageFields(r, tu))
			if s.cfg.TTL > 0 {
				pipe.Expire(ctx, key, s.cfg.TTL)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis sink: publish %d tenants: %w", len(r.Tenants), err)
	}
	return nil
}

// Close closes the client if the sink dialed it.
func (s *RedisSink) Close() error {
	return s.closer()
}

func usageFields(r Report, tu window.TenantUsage) map[string]interface{} {
	return map[string]interface{}{
		"count":          tu.Count,
		"remaining":      tu.Remaining,
		"retry_after_ms": tu.RetryAfter.Milliseconds(),
		"oldest":         strconv.FormatInt(int64(tu.Oldest), 10),
		"newest":         strconv.FormatInt(int64(tu.Newest), 10),
		"generated_at":   r.GeneratedAt.UTC().Format(time.RFC3339Nano),
		"instance":       r.InstanceID,
	}
}
