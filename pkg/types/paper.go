// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scholar-feed pipeline.
package types

import (
	"strings"
	"time"
)

// Paper is the unit exchanged between collectors and the feed builder.
// Papers are value objects: constructed fresh per collector call, never
// mutated afterwards, identified only by their dedup key.
type Paper struct {
	// Title is the paper title. Records without a resolvable title are
	// discarded by collectors, so this is never empty.
	Title string `json:"title" yaml:"title"`

	// URL is the resolved canonical link, if any. Collectors prefer a DOI
	// resolver link, then an open-access PDF, then a source-native permalink.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Snippet is the abstract or result snippet, whitespace-normalized and
	// capped at 600 characters.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Authors is a rendered, comma-joined author list. Kept as free text
	// because upstreams disagree on author structure.
	Authors string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Source labels provenance: a venue name, the raw scraped publication
	// string, or the provider name as a fallback. Never empty.
	Source string `json:"source" yaml:"source"`

	// Date is the resolved publication instant. The zero value means the
	// upstream date could not be resolved.
	Date time.Time `json:"date,omitempty" yaml:"date,omitempty"`

	// RawDate preserves the original upstream date string for audit,
	// whether or not parsing succeeded.
	RawDate string `json:"raw_date,omitempty" yaml:"raw_date,omitempty"`
}

// DedupKey returns the identity used to detect duplicate papers: the
// lowercased URL, or the lowercased title when no URL was resolved.
func (p Paper) DedupKey() string {
	if p.URL != "" {
		return strings.ToLower(p.URL)
	}
	return strings.ToLower(p.Title)
}
