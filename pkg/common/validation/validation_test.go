package validation

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/tenantgate/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
		{"large positive", 1000000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("window", "max_tenants", tt.value)

			if tt.wantError {
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				if !stderrors.Is(err, errors.ErrInvalidConfiguration) {
					t.Error("expected error to wrap ErrInvalidConfiguration")
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"zero value", 0, false},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegative("window", "max_requests", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateNonNegative(%d) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
		})
	}
}

func TestValidateMillisecondDuration(t *testing.T) {
	tests := []struct {
		name      string
		value     time.Duration
		wantError bool
	}{
		{"ten seconds", 10 * time.Second, false},
		{"one millisecond", time.Millisecond, false},
		{"zero", 0, true},
		{"negative", -time.Second, true},
		{"sub-millisecond", 500 * time.Microsecond, true},
		{"fractional millisecond", 1500 * time.Microsecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMillisecondDuration("window", "window", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateMillisecondDuration(%v) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	if err := ValidateNotNil("report", "limiter", nil); err == nil {
		t.Error("expected error for nil value")
	}
	if err := ValidateNotNil("report", "limiter", struct{}{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("report", "schedule", ""); err == nil {
		t.Error("expected error for empty string")
	}
	if err := ValidateNotEmpty("report", "schedule", "@every 10s"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateOneOf(t *testing.T) {
	if err := ValidateOneOf("logging", "format", "json", "json", "text"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := ValidateOneOf("logging", "format", "xml", "json", "text")
	if err == nil {
		t.Fatal("expected error for unsupported value")
	}
	if !strings.Contains(err.Error(), `"json", "text"`) {
		t.Errorf("hint should list allowed values, got %q", err.Error())
	}
}
