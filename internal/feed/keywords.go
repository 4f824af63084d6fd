// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import "strings"

// DedupeKeywords trims keywords, drops empty entries, and removes
// case-insensitive duplicates. The first occurrence keeps its original
// casing and position, so callers get stable ordering.
func DedupeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	var out []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out
}
