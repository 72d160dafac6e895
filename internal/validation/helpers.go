package validation

import (
	"strings"

	"LedgerSync/internal/ledger"
)

// NormalizeCode trims whitespace around an account code.
func NormalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// ValidCodeShape reports whether every segment of code is non-empty.
// "100..01" and "100." are malformed.
func ValidCodeShape(code string) bool {
	code = NormalizeCode(code)
	if code == "" {
		return false
	}
	for _, seg := range ledger.Segments(code) {
		if seg == "" {
			return false
		}
	}
	return true
}
