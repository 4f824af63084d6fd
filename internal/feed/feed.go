// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed builds the aggregate paper feed: one collector run per
// keyword, merged, deduplicated, capped, and sorted.
package feed

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/scholar-feed/internal/collect"
	"github.com/pdiddy/scholar-feed/pkg/types"
)

// defaultMaxPapers caps the aggregate pool when the config does not.
const defaultMaxPapers = 50

// Output holds the aggregate feed and collection statistics.
type Output struct {
	Papers        []types.Paper
	DupsRemoved   int
	KeywordErrors []string
}

// Build runs the collector for each deduplicated keyword, strictly
// sequentially: both upstreams enforce courtesy rate limits that only hold
// under serial execution. A failing keyword is logged to w and skipped; the
// build fails only when every keyword failed. An empty feed with no
// failures is a valid result.
func Build(ctx context.Context, keywords []string, collector collect.Collector, cfg types.FeedConfig, w io.Writer) (Output, error) {
	kws := DedupeKeywords(keywords)
	if len(kws) == 0 {
		return Output{}, fmt.Errorf("no keywords to collect")
	}

	maxPapers := cfg.MaxPapers
	if maxPapers <= 0 {
		maxPapers = defaultMaxPapers
	}

	seen := make(map[string]bool)
	var pool []types.Paper
	var errs []string
	removed := 0

	for _, kw := range kws {
		if len(pool) >= maxPapers {
			break
		}
		papers, err := collector.Collect(ctx, kw, cfg.Collector)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", kw, err))
			fmt.Fprintf(w, "warning: keyword %q failed: %v\n", kw, err)
			continue
		}
		for _, p := range papers {
			key := p.DedupKey()
			if seen[key] {
				removed++
				continue
			}
			if len(pool) >= maxPapers {
				break
			}
			seen[key] = true
			pool = append(pool, p)
		}
	}

	if len(errs) == len(kws) {
		return Output{}, fmt.Errorf("all %d keyword(s) failed: %s", len(kws), strings.Join(errs, "; "))
	}

	collect.SortByDateDesc(pool)
	return Output{Papers: pool, DupsRemoved: removed, KeywordErrors: errs}, nil
}
