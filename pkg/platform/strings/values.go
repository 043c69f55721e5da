// Package strings holds small helpers for list-valued settings and flags.
package strings

import "strings"

// CleanList trims every element, drops empties and keeps the first
// occurrence of each value. With fold set, values are lowercased first.
//
//	CleanList([]string{" kafka-1:9092", "", "kafka-1:9092 "}, false) // ["kafka-1:9092"]
func CleanList(values []string, fold bool) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold {
			v = strings.ToLower(v)
		}
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
