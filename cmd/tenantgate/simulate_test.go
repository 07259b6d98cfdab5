package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/tenantgate/internal/logging"
	"github.com/vnykmshr/tenantgate/internal/testutil"
	"github.com/vnykmshr/tenantgate/pkg/config"
)

func TestRunSimulation(t *testing.T) {
	cfg := config.Default()
	cfg.Simulate.Workers = 2
	cfg.Simulate.RequestsPerWorker = 4
	cfg.Simulate.Tenants = 1
	cfg.Simulate.Step = time.Second
	maxRequests := 3
	cfg.Limiter.MaxRequests = &maxRequests

	var out bytes.Buffer
	err := runSimulation(context.Background(), cfg, logging.Discard(), &out, true)
	testutil.AssertNoError(t, err)

	got := out.String()
	for _, want := range []string{
		"[worker 0] t=0 tenant 0 - request allowed: 0",
		"4 rounds, virtual time 4s",
		"TENANT",
		"total",
		"window 10s, max 3 requests, at t=4000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunSimulation_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Simulate.Workers = 0

	err := runSimulation(context.Background(), cfg, logging.Discard(), &bytes.Buffer{}, false)
	testutil.AssertError(t, err)
}
