// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect gathers recently published papers for a keyword from one
// upstream source. Two collectors implement the same contract: a structured
// bibliographic API and a scraped search-results page.
package collect

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/scholar-feed/pkg/types"
)

// Collector returns normalized Paper records for a keyword. Each upstream
// (Semantic Scholar API, scraped Google Scholar) implements this interface
// per the Strategy pattern; the feed builder selects one at call time.
type Collector interface {
	Name() string
	Collect(ctx context.Context, keyword string, cfg types.CollectorConfig) ([]types.Paper, error)
}

// timeNow is the clock used to anchor trailing windows. Declared as a var
// so tests can inject a fixed instant.
var timeNow = time.Now

// snippetMax caps snippet/abstract length.
const snippetMax = 600

// WithinWindow reports whether t falls inside the trailing window ending
// at now. Future instants are always excluded.
func WithinWindow(t, now time.Time, window time.Duration) bool {
	if t.After(now) {
		return false
	}
	return now.Sub(t) <= window
}

// DedupePapers removes duplicate papers by their dedup key, keeping the
// first occurrence in collection order.
func DedupePapers(papers []types.Paper) []types.Paper {
	seen := make(map[string]bool, len(papers))
	deduped := papers[:0:0]
	for _, p := range papers {
		key := p.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, p)
	}
	return deduped
}

// SortByDateDesc orders papers newest first. Papers without a resolved
// date sort last. The sort is stable so collection order breaks ties.
func SortByDateDesc(papers []types.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		di, dj := papers[i].Date, papers[j].Date
		if di.IsZero() {
			return false
		}
		if dj.IsZero() {
			return true
		}
		return di.After(dj)
	})
}

// normalizeSpace collapses runs of whitespace into single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capSnippet truncates s to snippetMax runes, appending an ellipsis.
func capSnippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetMax {
		return s
	}
	return string(runes[:snippetMax-3]) + "..."
}
