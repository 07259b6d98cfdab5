package validation

import (
	"time"

	gferrors "github.com/vnykmshr/tenantgate/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return gferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that an integer value is non-negative (>= 0).
func ValidateNonNegative(module, field string, value int) error {
	if value < 0 {
		return gferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateMillisecondDuration validates that d is at least one millisecond
// and carries no sub-millisecond remainder.
func ValidateMillisecondDuration(module, field string, d time.Duration) error {
	if d < time.Millisecond {
		return gferrors.NewValidationError(module, field, d, "must be at least 1ms").
			WithHint("windows are measured in whole milliseconds")
	}
	if d%time.Millisecond != 0 {
		return gferrors.NewValidationError(module, field, d, "must be a whole number of milliseconds").
			WithHint("round to " + d.Round(time.Millisecond).String())
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return gferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return gferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateOneOf validates that value is one of the allowed strings.
func ValidateOneOf(module, field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return gferrors.NewValidationError(module, field, value, "unsupported value").
		WithHint("use one of " + joinQuoted(allowed))
}

func joinQuoted(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += `"` + v + `"`
	}
	return out
}
