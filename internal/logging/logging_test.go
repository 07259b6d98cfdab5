package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"json", Config{Level: "info", Format: "json"}, false},
		{"text", Config{Level: "debug", Format: "text"}, false},
		{"defaults", Config{}, false},
		{"upper case", Config{Level: "WARN", Format: "JSON"}, false},
		{"invalid level", Config{Level: "verbose"}, true},
		{"invalid format", Config{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("expected logger")
			}
		})
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "text", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("hidden")
	logger.Warn("shown", slog.String("tenant", "acme"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "tenant=acme") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestNew_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Format: "json", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("admitted", slog.Int("count", 3))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if record["msg"] != "admitted" {
		t.Errorf("msg = %v, want admitted", record["msg"])
	}
	if record["count"] != float64(3) {
		t.Errorf("count = %v, want 3", record["count"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"Info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing to see")
}
