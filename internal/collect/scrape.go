// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/scholar-feed/internal/dates"
	"github.com/pdiddy/scholar-feed/internal/httputil"
	"github.com/pdiddy/scholar-feed/pkg/types"
)

// Base URLs for the scrape collector. Declared as vars so tests can
// substitute an httptest server.
var (
	scraperAPIBase = "https://api.scraperapi.com/"
	scholarBase    = "https://scholar.google.com/scholar"
)

// scrapeProvider labels papers whose byline carries no publication string.
const scrapeProvider = "Google Scholar"

const (
	// scrapeWindowDays is the fixed trailing window. The results page has
	// no reliable older dates, so the window is not configurable here.
	scrapeWindowDays = 30
	// scrapeMaxAttempts is the retry budget for transport errors and 429s.
	scrapeMaxAttempts = 3
	// scrapeMaxResults bounds block extraction per page.
	scrapeMaxResults = 20
	// scrapeBodyLimit caps how much rendered HTML is read.
	scrapeBodyLimit = 5 << 20
)

// scrapeBackoff is the linear retry schedule: 5s, 10s, 15s. Tests
// substitute a faster schedule.
var scrapeBackoff = httputil.LinearBackoff(5 * time.Second)

// Package-level compiled patterns; result markup sometimes quotes class
// attributes and sometimes does not.
var (
	blockStartPattern = regexp.MustCompile(`<div class="?gs_ri"?[^>]*>`)
	titleLinkPattern  = regexp.MustCompile(`(?s)<h3 class="?gs_rt[^">]*"?[^>]*>.*?<a href="([^"]+)"[^>]*>(.*?)</a>`)
	bylinePattern     = regexp.MustCompile(`(?s)<div class="?gs_a[^">]*"?[^>]*>(.*?)</div>`)
	snippetPattern    = regexp.MustCompile(`(?s)<div class="?gs_rs[^">]*"?[^>]*>(.*?)</div>`)
	agePattern        = regexp.MustCompile(`(?i)(?:about\s+)?\b(\d+\s+(?:minute|hour|day|week|month|year)s?\s+ago|today|yesterday)\b`)
	absDatePattern    = regexp.MustCompile(`\b([A-Z][a-z]+\.?\s+\d{1,2},\s+\d{4})\b`)
	yearPattern       = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
)

// entityDecoder handles the minimal entity set these pages emit.
var entityDecoder = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// ScrapeCollector fetches a rendered search-results page through a
// ScraperAPI proxy and extracts result blocks with bounded pattern
// matching. The extraction is intentionally isolated here so a real HTML
// parser could replace it without touching the Collector contract.
type ScrapeCollector struct {
	Client *http.Client
}

// Name returns the collector identifier.
func (c *ScrapeCollector) Name() string { return "scrape" }

// Collect scrapes one recency-sorted results page for keyword and returns
// papers published inside the fixed 30-day window, newest first. Blocks
// whose date cannot be resolved are dropped.
func (c *ScrapeCollector) Collect(ctx context.Context, keyword string, cfg types.CollectorConfig) ([]types.Paper, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("empty keyword")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("scraping proxy API key is required")
	}

	target := scholarBase + "?" + url.Values{
		"q":      {keyword},
		"hl":     {"en"},
		"as_sdt": {"0,5"},
		"scisbd": {"1"}, // sort by date
	}.Encode()

	proxyURL := scraperAPIBase + "?" + url.Values{
		"api_key":      {cfg.APIKey},
		"url":          {target},
		"render":       {"true"},
		"premium":      {"true"},
		"country_code": {"us"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxyURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, httputil.Policy{
		MaxAttempts:    scrapeMaxAttempts,
		Backoff:        scrapeBackoff,
		RetryStatus:    func(code int) bool { return code == http.StatusTooManyRequests },
		RetryTransport: true,
	})
	if err != nil {
		return nil, fmt.Errorf("scraping proxy request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraping proxy: %w", httputil.StatusError(resp))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, scrapeBodyLimit))
	if err != nil {
		return nil, fmt.Errorf("reading rendered page: %w", err)
	}

	now := timeNow().UTC()
	window := scrapeWindowDays * 24 * time.Hour

	var papers []types.Paper
	for _, block := range splitResultBlocks(string(body)) {
		p, ok := extractPaper(block)
		if !ok {
			continue
		}
		date, ok := dates.Parse(p.RawDate)
		if !ok || !WithinWindow(date, now, window) {
			continue
		}
		p.Date = date
		papers = append(papers, p)
	}

	SortByDateDesc(papers)
	return papers, nil
}

// splitResultBlocks slices the page into per-result chunks so field
// patterns cannot match across adjacent results.
func splitResultBlocks(page string) []string {
	starts := blockStartPattern.FindAllStringIndex(page, scrapeMaxResults+1)
	var blocks []string
	for i, loc := range starts {
		if i >= scrapeMaxResults {
			break
		}
		end := len(page)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		blocks = append(blocks, page[loc[0]:end])
	}
	return blocks
}

// extractPaper pulls title, link, byline, snippet, and a raw date
// candidate from one result block. Blocks without a title and link
// (citation-only entries) are skipped.
func extractPaper(block string) (types.Paper, bool) {
	tl := titleLinkPattern.FindStringSubmatch(block)
	if tl == nil {
		return types.Paper{}, false
	}
	title := cleanMarkup(tl[2])
	if title == "" {
		return types.Paper{}, false
	}

	var byline, snippet string
	if m := bylinePattern.FindStringSubmatch(block); m != nil {
		byline = cleanMarkup(m[1])
	}
	if m := snippetPattern.FindStringSubmatch(block); m != nil {
		snippet = cleanMarkup(m[1])
	}

	authors, source := splitByline(byline)
	if source == "" {
		source = scrapeProvider
	}

	return types.Paper{
		Title:   title,
		URL:     entityDecoder.Replace(tl[1]),
		Snippet: capSnippet(stripAgePrefix(snippet)),
		Authors: authors,
		Source:  source,
		RawDate: dateCandidate(snippet, byline),
	}, true
}

// dateCandidate picks the raw date string for a block, in priority order:
// an age annotation inside the snippet, a relative substring in the byline,
// an absolute "Month Day, Year" substring, then a trailing 4-digit year.
func dateCandidate(snippet, byline string) string {
	if m := agePattern.FindStringSubmatch(snippet); m != nil {
		return m[1]
	}
	if m := agePattern.FindStringSubmatch(byline); m != nil {
		return m[1]
	}
	if m := absDatePattern.FindStringSubmatch(byline); m != nil {
		return m[1]
	}
	if ys := yearPattern.FindAllString(byline, -1); len(ys) > 0 {
		return ys[len(ys)-1]
	}
	return ""
}

// splitByline separates an author/venue line of the form
// "A Author, B Author - Venue, 2023 - domain" into its author and
// publication parts.
func splitByline(byline string) (authors, source string) {
	parts := strings.Split(byline, " - ")
	authors = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		source = strings.TrimSpace(parts[1])
	}
	return authors, source
}

// stripAgePrefix removes a leading "N days ago - " annotation from a
// snippet so the annotation is not duplicated into the stored text.
func stripAgePrefix(snippet string) string {
	m := agePattern.FindStringIndex(snippet)
	if m == nil || m[0] != 0 {
		return snippet
	}
	rest := snippet[m[1]:]
	rest = strings.TrimLeft(rest, " -")
	return strings.TrimSpace(rest)
}

// cleanMarkup strips tags, decodes the minimal entity set, and collapses
// whitespace.
func cleanMarkup(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = entityDecoder.Replace(s)
	return normalizeSpace(s)
}
