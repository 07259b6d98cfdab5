package window

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	gferrors "github.com/vnykmshr/tenantgate/pkg/common/errors"
)

// MaxTenantIDLength is the longest tenant identifier accepted, in bytes.
const MaxTenantIDLength = 128

// TenantID identifies an independent quota holder.
type TenantID string

// TenantIDFromInt formats a small integer tenant number. Negative numbers
// yield an identifier that fails validation.
func TenantIDFromInt(n int) TenantID {
	if n < 0 {
		return TenantID("")
	}
	return TenantID(strconv.Itoa(n))
}

// Validate reports ErrInvalidTenant for empty, oversized, non-UTF-8
// identifiers and for identifiers containing spaces or control characters.
func (id TenantID) Validate() error {
	s := string(id)
	if s == "" || len(s) > MaxTenantIDLength || !utf8.ValidString(s) {
		return gferrors.ErrInvalidTenant
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return gferrors.ErrInvalidTenant
		}
	}
	return nil
}

func (id TenantID) String() string {
	return string(id)
}
