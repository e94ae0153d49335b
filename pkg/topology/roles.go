package topology

import (
	"strings"
	"unicode"
)

// Role is the fabric role of a device, derived from its name and never
// configured. Unmatched names resolve to RoleUnknown instead of failing so
// that plain hosts can coexist in the same topology.
type Role string

const (
	RoleSpine   Role = "spine"
	RoleLeaf    Role = "leaf"
	RoleBorder  Role = "border"
	RoleUnknown Role = "unknown"
)

func RoleOf(name string) Role {
	lower := strings.ToLower(name)

	switch {
	case strings.HasPrefix(lower, string(RoleSpine)):
		return RoleSpine
	case strings.HasPrefix(lower, string(RoleLeaf)):
		return RoleLeaf
	case strings.HasPrefix(lower, string(RoleBorder)):
		return RoleBorder
	}

	return RoleUnknown
}

// Ordinal extracts the maximal trailing run of decimal digits from name,
// e.g. "leaf01" -> 1, "spine10" -> 10. Names without trailing digits get 0.
// Callers must not assume ordinals are contiguous or unique.
func Ordinal(name string) int {
	end := len(name)
	start := end
	for start > 0 && unicode.IsDigit(rune(name[start-1])) {
		start--
	}

	ordinal := 0
	for _, r := range name[start:end] {
		ordinal = ordinal*10 + int(r-'0')
	}

	return ordinal
}
