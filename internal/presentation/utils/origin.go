package utils

import (
	"strings"

	"github.com/samber/lo"
)

// OriginAllowed reports whether origin is in allowed. "*" allows any origin,
// and a request without an Origin header is allowed.
func OriginAllowed(allowed []string, origin string) bool {
	if origin == "" || lo.Contains(allowed, "*") {
		return true
	}
	return lo.ContainsBy(allowed, func(o string) bool {
		return strings.EqualFold(strings.TrimRight(o, "/"), origin)
	})
}
