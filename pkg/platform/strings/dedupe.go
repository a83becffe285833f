// Package strings holds slice helpers for hand-maintained lists: broker
// addresses from the environment, county columns, place tables.
package strings

import (
	"strings"
)

// Unique trims every value and drops blanks and repeats, keeping the first
// occurrence's position.
func Unique(values []string) []string {
	return unique(values, strings.TrimSpace)
}

// UniqueFold is Unique with values lowercased before comparison and in the
// result.
func UniqueFold(values []string) []string {
	return unique(values, func(s string) string { return strings.ToLower(strings.TrimSpace(s)) })
}

func unique(values []string, norm func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = norm(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
